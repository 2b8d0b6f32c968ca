package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/config"
	"github.com/edubrain/answer-backend/internal/entity"
)

func testLookupConfig() config.LookupConfig {
	return config.LookupConfig{
		Enabled: true,
		Timeout: 5 * time.Second,
	}
}

func newTestConnector(t *testing.T, providers ...entity.LookupProvider) *Connector {
	t.Helper()

	return NewConnector(testLookupConfig(), providers, zap.NewNop())
}

func TestSearchYanxiStyleProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}

		q := r.URL.Query()
		if q.Get("title") != "中国的首都是哪里" {
			t.Errorf("title param = %q", q.Get("title"))
		}
		if q.Get("type") != "single" {
			t.Errorf("type param = %q", q.Get("type"))
		}
		if q.Get("token") != "secret" {
			t.Errorf("token param = %q", q.Get("token"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"answer": "北京"},
		})
	}))
	defer server.Close()

	c := newTestConnector(t, entity.LookupProvider{
		Name:   "测试题库",
		URL:    server.URL,
		Method: "get",
		Parser: entity.ParserYanxi,
		Data: map[string]string{
			"token": "secret",
			"title": "${title}",
			"type":  "${type}",
		},
	})

	found, err := c.Search(context.Background(), &entity.SearchQuery{
		Question: "中国的首都是哪里",
		Type:     entity.TypeSingle,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if found.Answer != "北京" {
		t.Errorf("Answer = %q, want %q", found.Answer, "北京")
	}

	if found.Provider != "测试题库" {
		t.Errorf("Provider = %q, want %q", found.Provider, "测试题库")
	}
}

func TestSearchYanxiEchoesMatchedQuestion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": 1,
			"data": map[string]any{
				"question": "中国的首都是哪里？",
				"answer":   "北京",
			},
		})
	}))
	defer server.Close()

	c := newTestConnector(t, entity.LookupProvider{
		Name:   "测试题库",
		URL:    server.URL,
		Method: "get",
		Parser: entity.ParserYanxi,
	})

	found, err := c.Search(context.Background(), &entity.SearchQuery{Question: "中国的首都是哪里"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if found.Question != "中国的首都是哪里？" {
		t.Errorf("Question = %q, want matched question echoed", found.Question)
	}
}

func TestSearchGotiStyleProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}

		if r.Header.Get("Authorization") != "token123" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}

		if r.PostForm.Get("question") != "水的化学式" {
			t.Errorf("question field = %q", r.PostForm.Get("question"))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"code": 1,
			"data": "H2O",
		})
	}))
	defer server.Close()

	c := newTestConnector(t, entity.LookupProvider{
		Name:        "GO题",
		URL:         server.URL,
		Method:      "post",
		ContentType: "form",
		Parser:      entity.ParserGoti,
		Headers:     map[string]string{"Authorization": "token123"},
		Data:        map[string]string{"question": "${title}"},
	})

	found, err := c.Search(context.Background(), &entity.SearchQuery{Question: "水的化学式"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if found.Answer != "H2O" {
		t.Errorf("Answer = %q, want %q", found.Answer, "H2O")
	}
}

func TestSearchGenericJSONProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}

		if body["q"] != "光合作用的场所" {
			t.Errorf("q field = %q", body["q"])
		}

		json.NewEncoder(w).Encode(map[string]any{"answer": "叶绿体"})
	}))
	defer server.Close()

	c := newTestConnector(t, entity.LookupProvider{
		Name:   "通用题库",
		URL:    server.URL,
		Method: "post",
		Parser: entity.ParserGeneric,
		Data:   map[string]string{"q": "${title}"},
	})

	found, err := c.Search(context.Background(), &entity.SearchQuery{Question: "光合作用的场所"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if found.Answer != "叶绿体" {
		t.Errorf("Answer = %q, want %q", found.Answer, "叶绿体")
	}
}

func TestSearchSkipsRefusalAnswers(t *testing.T) {
	refusing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"answer": "非常抱歉，题目搜索不到"},
		})
	}))
	defer refusing.Close()

	answering := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"answer": "长江"},
		})
	}))
	defer answering.Close()

	c := newTestConnector(t,
		entity.LookupProvider{Name: "拒答题库", URL: refusing.URL, Method: "get", Parser: entity.ParserYanxi},
		entity.LookupProvider{Name: "备用题库", URL: answering.URL, Method: "get", Parser: entity.ParserYanxi},
	)

	found, err := c.Search(context.Background(), &entity.SearchQuery{Question: "中国最长的河流"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if found.Provider != "备用题库" {
		t.Errorf("Provider = %q, want fallback provider", found.Provider)
	}

	if found.Answer != "长江" {
		t.Errorf("Answer = %q, want %q", found.Answer, "长江")
	}
}

func TestSearchSkipsFailingProvider(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer failing.Close()

	answering := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 1, "data": "正确"})
	}))
	defer answering.Close()

	c := newTestConnector(t,
		entity.LookupProvider{Name: "故障题库", URL: failing.URL, Method: "get", Parser: entity.ParserYanxi},
		entity.LookupProvider{Name: "备用题库", URL: answering.URL, Method: "post", Parser: entity.ParserGoti},
	)

	found, err := c.Search(context.Background(), &entity.SearchQuery{Question: "地球是圆的"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if found.Provider != "备用题库" {
		t.Errorf("Provider = %q, want fallback provider", found.Provider)
	}
}

func TestSearchAllProvidersMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "msg": "未找到该题目"})
	}))
	defer server.Close()

	c := newTestConnector(t, entity.LookupProvider{
		Name:   "GO题",
		URL:    server.URL,
		Method: "post",
		Parser: entity.ParserGoti,
	})

	_, err := c.Search(context.Background(), &entity.SearchQuery{Question: "冷门问题"})
	if !errors.Is(err, entity.ErrAnswerNotFound) {
		t.Fatalf("Search() error = %v, want ErrAnswerNotFound", err)
	}
}

func TestSearchWithoutProviders(t *testing.T) {
	c := newTestConnector(t)

	_, err := c.Search(context.Background(), &entity.SearchQuery{Question: "任何问题"})
	if !errors.Is(err, entity.ErrProviderDisabled) {
		t.Fatalf("Search() error = %v, want ErrProviderDisabled", err)
	}
}

func TestParseGeneric(t *testing.T) {
	tests := []struct {
		name         string
		raw          map[string]any
		wantQuestion string
		wantAnswer   string
	}{
		{
			name:       "top level answer",
			raw:        map[string]any{"answer": "甲"},
			wantAnswer: "甲",
		},
		{
			name:         "nested data object",
			raw:          map[string]any{"data": map[string]any{"question": "问", "answer": "乙"}},
			wantQuestion: "问",
			wantAnswer:   "乙",
		},
		{
			name:       "data as bare string",
			raw:        map[string]any{"data": "丙"},
			wantAnswer: "丙",
		},
		{
			name: "nothing usable",
			raw:  map[string]any{"msg": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question, answer := parseGeneric(tt.raw)
			if question != tt.wantQuestion || answer != tt.wantAnswer {
				t.Errorf("parseGeneric() = (%q, %q), want (%q, %q)", question, answer, tt.wantQuestion, tt.wantAnswer)
			}
		})
	}
}

func TestIsNotFoundAnswer(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"", true},
		{"非常抱歉，未收录", true},
		{"Sorry, NOT FOUND", true},
		{"暂无答案", true},
		{"北京", false},
		{"A#B", false},
	}

	for _, tt := range tests {
		if got := isNotFoundAnswer(tt.answer); got != tt.want {
			t.Errorf("isNotFoundAnswer(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}
