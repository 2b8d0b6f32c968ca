package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/edubrain/answer-backend/internal/entity"
)

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	question := "中国的首都是哪里"

	if _, ok := c.Get(ctx, question, entity.TypeSingle, ""); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, question, entity.TypeSingle, "", "北京")

	answer, ok := c.Get(ctx, question, entity.TypeSingle, "")
	if !ok {
		t.Fatal("expected hit after set")
	}

	if answer != "北京" {
		t.Fatalf("Get() = %q, want %q", answer, "北京")
	}
}

func TestMemoryKeyIdentity(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	question := "下列哪项是惰性气体"
	options := "A. 氧气\nB. 氦气"

	c.Set(ctx, question, entity.TypeSingle, options, "氦气")

	tests := []struct {
		name    string
		qtype   entity.QuestionType
		options string
		wantHit bool
	}{
		{"same triple hits", entity.TypeSingle, options, true},
		{"different type misses", entity.TypeMultiple, options, false},
		{"different options miss", entity.TypeSingle, "A. 氧气\nB. 氮气", false},
		{"missing options miss", entity.TypeSingle, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := c.Get(ctx, question, tt.qtype, tt.options)
			if ok != tt.wantHit {
				t.Errorf("Get() hit = %v, want %v", ok, tt.wantHit)
			}
		})
	}
}

func TestMemoryClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	c.Set(ctx, "问题一", entity.TypeJudgement, "", "正确")
	c.Set(ctx, "问题二", entity.TypeJudgement, "", "错误")

	size, err := c.Size(ctx)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}

	if size != 2 {
		t.Fatalf("Size() = %d, want 2", size)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	size, err = c.Size(ctx)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}

	if size != 0 {
		t.Fatalf("Size() after Clear() = %d, want 0", size)
	}

	if _, ok := c.Get(ctx, "问题一", entity.TypeJudgement, ""); ok {
		t.Fatal("expected miss after Clear()")
	}
}

func TestMemoryExpiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(20 * time.Millisecond)

	c.Set(ctx, "短命条目", entity.TypeCompletion, "", "答案")

	if _, ok := c.Get(ctx, "短命条目", entity.TypeCompletion, ""); !ok {
		t.Fatal("expected hit before expiration")
	}

	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get(ctx, "短命条目", entity.TypeCompletion, ""); ok {
		t.Fatal("expected miss after expiration")
	}
}

func TestKeyFormat(t *testing.T) {
	key := Key("题目", entity.TypeSingle, "A. 甲")

	if !strings.HasPrefix(key, keyPrefix) {
		t.Fatalf("Key() = %q, want %q prefix", key, keyPrefix)
	}

	// md5 hex digest after the prefix.
	if len(key) != len(keyPrefix)+32 {
		t.Fatalf("Key() length = %d, want %d", len(key), len(keyPrefix)+32)
	}

	if key != Key("题目", entity.TypeSingle, "A. 甲") {
		t.Fatal("Key() is not deterministic")
	}
}
