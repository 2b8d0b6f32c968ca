package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/edubrain/answer-backend/internal/entity"
)

type stubUsecase struct {
	result    *entity.SearchResult
	err       error
	lastQuery *entity.SearchQuery
}

func (s *stubUsecase) Search(_ context.Context, query *entity.SearchQuery) (*entity.SearchResult, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestSearchGET(t *testing.T) {
	uc := &stubUsecase{result: &entity.SearchResult{
		Question: "中国的首都是哪里？",
		Answer:   "北京",
		Source:   entity.SourceAI,
	}}
	h := NewHandler(uc)

	params := url.Values{}
	params.Set("title", "中国的首都是哪里？")
	params.Set("type", "single")
	params.Set("options", "A. 上海\nB. 北京")
	req := httptest.NewRequest(http.MethodGet, "/api/search?"+params.Encode(), nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"].(float64) != 1 {
		t.Errorf("code = %v, want 1", body["code"])
	}
	if body["answer"] != "北京" {
		t.Errorf("answer = %v, want 北京", body["answer"])
	}
	if uc.lastQuery.Type != entity.TypeSingle {
		t.Errorf("parsed type = %q, want single", uc.lastQuery.Type)
	}
	if uc.lastQuery.Options != "A. 上海\nB. 北京" {
		t.Errorf("parsed options = %q", uc.lastQuery.Options)
	}
}

func TestSearchPostJSON(t *testing.T) {
	uc := &stubUsecase{result: &entity.SearchResult{Question: "题目", Answer: "正确", Source: entity.SourceCache}}
	h := NewHandler(uc)

	payload := `{"title":"题目","type":"judgement","options":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if uc.lastQuery.Question != "题目" {
		t.Errorf("parsed question = %q", uc.lastQuery.Question)
	}
	if uc.lastQuery.Type != entity.TypeJudgement {
		t.Errorf("parsed type = %q, want judgement", uc.lastQuery.Type)
	}
}

func TestSearchPostForm(t *testing.T) {
	uc := &stubUsecase{result: &entity.SearchResult{Question: "题目", Answer: "答案", Source: entity.SourceDatabase}}
	h := NewHandler(uc)

	form := url.Values{}
	form.Set("title", "题目")
	form.Set("type", "completion")
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if uc.lastQuery.Type != entity.TypeCompletion {
		t.Errorf("parsed type = %q, want completion", uc.lastQuery.Type)
	}
}

func TestSearchUnknownTypeBecomesUnspecified(t *testing.T) {
	uc := &stubUsecase{result: &entity.SearchResult{Question: "题目", Answer: "答案", Source: entity.SourceAI}}
	h := NewHandler(uc)

	req := httptest.NewRequest(http.MethodGet, "/api/search?title=题目&type=essay", nil)
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if uc.lastQuery.Type != entity.TypeUnspecified {
		t.Errorf("parsed type = %q, want unspecified", uc.lastQuery.Type)
	}
}

func TestSearchDomainFailuresKeepHTTP200(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "missing question", err: entity.ErrMissingQuestion, wantMsg: "未提供问题内容"},
		{name: "suspicious input", err: entity.ErrSuspiciousInput, wantMsg: "请求参数无效"},
		{name: "empty answer", err: entity.ErrEmptyAnswer, wantMsg: "AI未能生成有效答案"},
		{name: "provider failure", err: errors.New("api unavailable"), wantMsg: "发生错误: api unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&stubUsecase{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/api/search?title=题目", nil)
			rec := httptest.NewRecorder()

			h.Search(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["code"].(float64) != 0 {
				t.Errorf("code = %v, want 0", body["code"])
			}
			if body["msg"] != tt.wantMsg {
				t.Errorf("msg = %q, want %q", body["msg"], tt.wantMsg)
			}
		})
	}
}

func TestSearchInvalidJSONBody(t *testing.T) {
	h := NewHandler(&stubUsecase{})

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Search(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"].(float64) != 0 {
		t.Errorf("code = %v, want 0", body["code"])
	}
}
