package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/config"
	"github.com/edubrain/answer-backend/internal/engine"
	"github.com/edubrain/answer-backend/internal/entity"
	pkgRetry "github.com/edubrain/answer-backend/internal/pkg/retry"
	"github.com/edubrain/answer-backend/internal/pkg/validator"
)

type stubCache struct {
	entries map[string]string
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]string)}
}

func cacheKey(question string, qtype entity.QuestionType, options string) string {
	return question + "|" + string(qtype) + "|" + options
}

func (s *stubCache) Get(_ context.Context, question string, qtype entity.QuestionType, options string) (string, bool) {
	answer, ok := s.entries[cacheKey(question, qtype, options)]
	return answer, ok
}

func (s *stubCache) Set(_ context.Context, question string, qtype entity.QuestionType, options, answer string) {
	s.entries[cacheKey(question, qtype, options)] = answer
	s.sets++
}

func (s *stubCache) Clear(context.Context) error {
	s.entries = make(map[string]string)
	return nil
}

func (s *stubCache) Size(context.Context) (int64, error) {
	return int64(len(s.entries)), nil
}

type stubLookup struct {
	answer *entity.LookupAnswer
	err    error
	calls  int
}

func (s *stubLookup) Search(context.Context, *entity.SearchQuery) (*entity.LookupAnswer, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

type stubAI struct {
	replies []string
	err     error
	systems []string
	prompts []string
}

func (s *stubAI) Name() string { return "stub" }

func (s *stubAI) GenerateAnswer(_ context.Context, system, prompt string) (string, error) {
	s.systems = append(s.systems, system)
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("stub out of replies")
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func (s *stubAI) Verify(context.Context, string) (string, error) {
	return "正确", nil
}

type stubRecords struct {
	created   []*entity.AnswerRecord
	createErr error
	recent    []*entity.AnswerRecord
	lastLimit int
}

func (s *stubRecords) CreateRecord(_ context.Context, record *entity.AnswerRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, record)
	return nil
}

func (s *stubRecords) GetRecordByID(_ context.Context, id string) (*entity.AnswerRecord, error) {
	for _, record := range s.created {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, entity.ErrRecordNotFound
}

func (s *stubRecords) ListRecentRecords(_ context.Context, limit int) ([]*entity.AnswerRecord, error) {
	s.lastLimit = limit
	if limit > len(s.recent) {
		limit = len(s.recent)
	}
	return s.recent[:limit], nil
}

func (s *stubRecords) GetRecordStats(context.Context) (*entity.RecordStats, error) {
	stats := &entity.RecordStats{ByType: make(map[entity.QuestionType]int64)}
	for _, record := range s.created {
		stats.Total++
		stats.ByType[record.Type]++
	}
	return stats, nil
}

func newTestUsecase(cache AnswerCache, lookup LookupConnector, ai AIConnector, records *stubRecords, mutate func(*config.Config)) *AnswerUsecase {
	cfg := &config.Config{
		CacheCfg:  config.CacheConfig{Enabled: true, Expiration: time.Hour},
		LookupCfg: config.LookupConfig{Enabled: true, Timeout: 5 * time.Second},
		AICfg: config.AIConfig{
			Provider: "gemini",
			Retry:    pkgRetry.RetryConfig{Attempts: 1, Delay: time.Millisecond, MaxDelay: time.Millisecond},
		},
		GeminiCfg: config.GeminiConfig{Model: "gemini-1.5-flash"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	eng := engine.New(engine.DefaultConfig(), nil)
	return NewUsecase(cache, lookup, ai, eng, records, validator.NewRequestValidator(), cfg, zap.NewNop())
}

func TestSearchMissingQuestion(t *testing.T) {
	uc := newTestUsecase(newStubCache(), &stubLookup{}, &stubAI{}, &stubRecords{}, nil)

	_, err := uc.Search(context.Background(), &entity.SearchQuery{})
	if !errors.Is(err, entity.ErrMissingQuestion) {
		t.Fatalf("Search() error = %v, want ErrMissingQuestion", err)
	}
}

func TestSearchServesCachedAnswer(t *testing.T) {
	cache := newStubCache()
	query := &entity.SearchQuery{Question: "中国的首都是哪里？", Type: entity.TypeSingle, Options: "A. 上海\nB. 北京"}
	cache.Set(context.Background(), query.Question, query.Type, query.Options, "北京")
	cache.sets = 0

	lookup := &stubLookup{}
	ai := &stubAI{}
	uc := newTestUsecase(cache, lookup, ai, &stubRecords{}, nil)

	result, err := uc.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Source != entity.SourceCache {
		t.Errorf("Source = %q, want %q", result.Source, entity.SourceCache)
	}
	if result.Answer != "北京" {
		t.Errorf("Answer = %q, want 北京", result.Answer)
	}
	if lookup.calls != 0 || len(ai.prompts) != 0 {
		t.Errorf("cache hit still reached lookup (%d) or AI (%d)", lookup.calls, len(ai.prompts))
	}
}

func TestSearchAcceptsQuestionBankAnswer(t *testing.T) {
	lookup := &stubLookup{answer: &entity.LookupAnswer{Provider: "言溪题库", Answer: "北京"}}
	ai := &stubAI{}
	records := &stubRecords{}
	cache := newStubCache()
	uc := newTestUsecase(cache, lookup, ai, records, nil)

	query := &entity.SearchQuery{
		Question: "中国的首都是哪里？",
		Type:     entity.TypeSingle,
		Options:  "A. 上海\nB. 北京\nC. 广州\nD. 深圳",
	}
	result, err := uc.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Source != entity.SourceDatabase {
		t.Errorf("Source = %q, want %q", result.Source, entity.SourceDatabase)
	}
	if result.Provider != "言溪题库" {
		t.Errorf("Provider = %q, want 言溪题库", result.Provider)
	}
	if result.Answer != "北京" {
		t.Errorf("Answer = %q, want 北京", result.Answer)
	}
	if len(ai.prompts) != 0 {
		t.Errorf("accepted bank answer still reached AI (%d calls)", len(ai.prompts))
	}
	if len(records.created) != 1 {
		t.Fatalf("persisted %d records, want 1", len(records.created))
	}
	if records.created[0].Source != entity.SourceDatabase {
		t.Errorf("record source = %q, want %q", records.created[0].Source, entity.SourceDatabase)
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}
}

func TestSearchRejectedBankAnswerFallsBackToAI(t *testing.T) {
	// A bare judgement word is a type mismatch for a single-choice question.
	lookup := &stubLookup{answer: &entity.LookupAnswer{Provider: "bank", Answer: "正确"}}
	ai := &stubAI{replies: []string{"<thinking>北京是首都。</thinking>\n<answer>北京</answer>"}}
	uc := newTestUsecase(newStubCache(), lookup, ai, &stubRecords{}, nil)

	query := &entity.SearchQuery{
		Question: "中国的首都是哪里？",
		Type:     entity.TypeSingle,
		Options:  "A. 上海\nB. 北京\nC. 广州\nD. 深圳",
	}
	result, err := uc.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Source != entity.SourceAI {
		t.Errorf("Source = %q, want %q", result.Source, entity.SourceAI)
	}
	if result.Answer != "北京" {
		t.Errorf("Answer = %q, want 北京", result.Answer)
	}
	if result.Provider != "stub" {
		t.Errorf("Provider = %q, want stub", result.Provider)
	}
}

func TestSearchLookupErrorFallsBackToAI(t *testing.T) {
	lookup := &stubLookup{err: entity.ErrAnswerNotFound}
	ai := &stubAI{replies: []string{"<answer>光合作用</answer>"}}
	uc := newTestUsecase(newStubCache(), lookup, ai, &stubRecords{}, nil)

	result, err := uc.Search(context.Background(), &entity.SearchQuery{
		Question: "植物将光能转化为化学能的过程叫什么？",
		Type:     entity.TypeCompletion,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Answer != "光合作用" {
		t.Errorf("Answer = %q, want 光合作用", result.Answer)
	}
	if result.Source != entity.SourceAI {
		t.Errorf("Source = %q, want %q", result.Source, entity.SourceAI)
	}
}

func TestSearchJudgementPromptAndNormalization(t *testing.T) {
	ai := &stubAI{replies: []string{"<thinking>陈述正确。</thinking>\n<answer>对</answer>"}}
	uc := newTestUsecase(newStubCache(), &stubLookup{err: entity.ErrAnswerNotFound}, ai, &stubRecords{}, nil)

	result, err := uc.Search(context.Background(), &entity.SearchQuery{
		Question: "地球绕着太阳转。( )",
		Type:     entity.TypeJudgement,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Answer != "正确" {
		t.Errorf("Answer = %q, want 正确", result.Answer)
	}
	if len(ai.systems) == 0 || ai.systems[0] != "" {
		t.Errorf("judgement prompt should carry an empty system message, got %q", ai.systems[0])
	}
	if len(ai.prompts) == 0 || !strings.Contains(ai.prompts[0], "判断题") {
		t.Errorf("judgement prompt missing the dedicated template")
	}
}

func TestSearchCorrectionRound(t *testing.T) {
	ai := &stubAI{replies: []string{
		"<answer>我不太确定这道题。</answer>",
		"<thinking>修正。</thinking>\n<answer>北京</answer>",
	}}
	uc := newTestUsecase(newStubCache(), &stubLookup{err: entity.ErrAnswerNotFound}, ai, &stubRecords{}, nil)

	query := &entity.SearchQuery{
		Question: "中国的首都是哪里？",
		Type:     entity.TypeSingle,
		Options:  "A. 上海\nB. 北京\nC. 广州\nD. 深圳",
	}
	result, err := uc.Search(context.Background(), query)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Answer != "北京" {
		t.Errorf("Answer = %q, want 北京", result.Answer)
	}
	if len(ai.prompts) != 2 {
		t.Fatalf("AI calls = %d, want 2 (initial + correction)", len(ai.prompts))
	}
	if !strings.Contains(ai.prompts[1], "<student_response>") {
		t.Errorf("second call is not a correction prompt: %q", ai.prompts[1])
	}
	if ai.systems[1] != correctionSystemPrompt {
		t.Errorf("correction call uses the wrong system prompt")
	}
}

func TestSearchDeepValidation(t *testing.T) {
	uc := newTestUsecase(newStubCache(), &stubLookup{}, &stubAI{}, &stubRecords{}, func(cfg *config.Config) {
		cfg.EnableInputValidation = true
	})

	_, err := uc.Search(context.Background(), &entity.SearchQuery{
		Question: "<script>alert(1)</script>以下哪项正确？",
		Type:     entity.TypeSingle,
	})
	if !errors.Is(err, entity.ErrSuspiciousInput) {
		t.Fatalf("Search() error = %v, want ErrSuspiciousInput", err)
	}
}

func TestSearchDisabledStagesSkipStraightToAI(t *testing.T) {
	cache := newStubCache()
	cache.Set(context.Background(), "题目", entity.TypeCompletion, "", "缓存答案")
	lookup := &stubLookup{answer: &entity.LookupAnswer{Provider: "bank", Answer: "题库答案"}}
	ai := &stubAI{replies: []string{"<answer>AI答案</answer>"}}

	uc := newTestUsecase(cache, lookup, ai, &stubRecords{}, func(cfg *config.Config) {
		cfg.CacheCfg.Enabled = false
		cfg.LookupCfg.Enabled = false
	})

	result, err := uc.Search(context.Background(), &entity.SearchQuery{Question: "题目", Type: entity.TypeCompletion})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Answer != "AI答案" {
		t.Errorf("Answer = %q, want AI答案", result.Answer)
	}
	if lookup.calls != 0 {
		t.Errorf("disabled lookup was still queried")
	}
}

func TestSearchRecordPersistenceFailureIsNotFatal(t *testing.T) {
	records := &stubRecords{createErr: errors.New("db down")}
	ai := &stubAI{replies: []string{"<answer>光合作用</answer>"}}
	uc := newTestUsecase(newStubCache(), &stubLookup{err: entity.ErrAnswerNotFound}, ai, records, nil)

	result, err := uc.Search(context.Background(), &entity.SearchQuery{
		Question: "植物将光能转化为化学能的过程叫什么？",
		Type:     entity.TypeCompletion,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Answer != "光合作用" {
		t.Errorf("Answer = %q, want 光合作用", result.Answer)
	}
}

func TestSearchAIFailure(t *testing.T) {
	ai := &stubAI{err: errors.New("api unavailable")}
	uc := newTestUsecase(newStubCache(), &stubLookup{err: entity.ErrAnswerNotFound}, ai, &stubRecords{}, nil)

	_, err := uc.Search(context.Background(), &entity.SearchQuery{Question: "题目", Type: entity.TypeCompletion})
	if err == nil {
		t.Fatal("Search() expected error when the AI provider fails")
	}
}

func TestListRecordsClampsLimit(t *testing.T) {
	records := &stubRecords{}
	for i := 0; i < 5; i++ {
		records.recent = append(records.recent, &entity.AnswerRecord{ID: fmt.Sprintf("record-%d", i)})
	}
	uc := newTestUsecase(newStubCache(), &stubLookup{}, &stubAI{}, records, nil)

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "zero uses default", limit: 0, wantLimit: defaultRecordsLimit},
		{name: "negative uses default", limit: -3, wantLimit: defaultRecordsLimit},
		{name: "over max uses default", limit: maxRecordsLimit + 1, wantLimit: defaultRecordsLimit},
		{name: "in range passes through", limit: 3, wantLimit: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.ListRecords(context.Background(), tt.limit); err != nil {
				t.Fatalf("ListRecords() error = %v", err)
			}
			if records.lastLimit != tt.wantLimit {
				t.Errorf("repository limit = %d, want %d", records.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestGetRecord(t *testing.T) {
	records := &stubRecords{created: []*entity.AnswerRecord{
		{ID: "record-1", Question: "1+1=?", Answer: "2"},
	}}
	uc := newTestUsecase(newStubCache(), &stubLookup{}, &stubAI{}, records, nil)

	record, err := uc.GetRecord(context.Background(), "record-1")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if record.Answer != "2" {
		t.Errorf("answer = %q, want 2", record.Answer)
	}

	if _, err := uc.GetRecord(context.Background(), "record-2"); !errors.Is(err, entity.ErrRecordNotFound) {
		t.Errorf("GetRecord() error = %v, want ErrRecordNotFound", err)
	}
}

func TestStats(t *testing.T) {
	records := &stubRecords{}
	cache := newStubCache()
	uc := newTestUsecase(cache, &stubLookup{err: entity.ErrAnswerNotFound}, &stubAI{replies: []string{"<answer>北京</answer>"}}, records, nil)

	query := &entity.SearchQuery{
		Question: "中国的首都是哪里？",
		Type:     entity.TypeSingle,
		Options:  "A. 上海\nB. 北京\nC. 广州\nD. 深圳",
	}
	if _, err := uc.Search(context.Background(), query); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	stats, err := uc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Version != serviceVersion {
		t.Errorf("Version = %q, want %q", stats.Version, serviceVersion)
	}
	if stats.AIProvider != "stub" {
		t.Errorf("AIProvider = %q, want stub", stats.AIProvider)
	}
	if stats.Model != "gemini-1.5-flash" {
		t.Errorf("Model = %q, want gemini-1.5-flash", stats.Model)
	}
	if stats.RecordCount != 1 {
		t.Errorf("RecordCount = %d, want 1", stats.RecordCount)
	}
	if stats.RecordsByType[entity.TypeSingle] != 1 {
		t.Errorf("RecordsByType[single] = %d, want 1", stats.RecordsByType[entity.TypeSingle])
	}
	if stats.CacheSize != 1 {
		t.Errorf("CacheSize = %d, want 1", stats.CacheSize)
	}
}

func TestClearCache(t *testing.T) {
	cache := newStubCache()
	cache.Set(context.Background(), "q", entity.TypeSingle, "", "a")
	uc := newTestUsecase(cache, &stubLookup{}, &stubAI{}, &stubRecords{}, nil)

	if err := uc.ClearCache(context.Background()); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if size, _ := cache.Size(context.Background()); size != 0 {
		t.Errorf("cache size after clear = %d, want 0", size)
	}
}

func TestClearCacheDisabled(t *testing.T) {
	uc := newTestUsecase(newStubCache(), &stubLookup{}, &stubAI{}, &stubRecords{}, func(cfg *config.Config) {
		cfg.CacheCfg.Enabled = false
	})

	if err := uc.ClearCache(context.Background()); !errors.Is(err, entity.ErrCacheDisabled) {
		t.Fatalf("ClearCache() error = %v, want ErrCacheDisabled", err)
	}
}
