package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/entity"
	"github.com/edubrain/answer-backend/internal/pkg/logger"
	"github.com/edubrain/answer-backend/internal/pkg/response"
)

type Handler struct {
	usecase AnswerUsecase
}

func NewHandler(usecase AnswerUsecase) *Handler {
	return &Handler{usecase: usecase}
}

type searchRequest struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Options string `json:"options"`
	Context string `json:"context"`
}

// Search handles GET|POST /api/search - Resolve one question for OCS.
// Domain failures answer HTTP 200 with code 0, the userscript treats
// non-200 responses as a broken question bank and disables it.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Search")

	query, err := parseSearchQuery(r)
	if err != nil {
		ctxzap.Error(ctx, "failed to parse search request", zap.Error(err))
		response.Failure(w, "请求体格式错误")
		return
	}

	ctxzap.Info(ctx, "received question",
		zap.String("question", truncate(query.Question, 50)),
		zap.String("type", string(query.Type)),
	)

	result, err := h.usecase.Search(ctx, query)
	if err != nil {
		ctxzap.Error(ctx, "failed to resolve question", zap.Error(err))
		response.Failure(w, failureMessage(err))
		return
	}

	response.JSON(w, http.StatusOK, toSearchResponse(result))
}

// parseSearchQuery accepts the three request shapes OCS clients send:
// GET query parameters, a JSON body, or an urlencoded form body.
func parseSearchQuery(r *http.Request) (*entity.SearchQuery, error) {
	if r.Method == http.MethodGet {
		params := r.URL.Query()
		return &entity.SearchQuery{
			Question: params.Get("title"),
			Type:     entity.ParseQuestionType(params.Get("type")),
			Options:  params.Get("options"),
			Context:  params.Get("context"),
		}, nil
	}

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		return &entity.SearchQuery{
			Question: req.Title,
			Type:     entity.ParseQuestionType(req.Type),
			Options:  req.Options,
			Context:  req.Context,
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form body: %w", err)
	}
	return &entity.SearchQuery{
		Question: r.PostFormValue("title"),
		Type:     entity.ParseQuestionType(r.PostFormValue("type")),
		Options:  r.PostFormValue("options"),
		Context:  r.PostFormValue("context"),
	}, nil
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrMissingQuestion):
		return "未提供问题内容"
	case errors.Is(err, entity.ErrFieldTooLong),
		errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrSuspiciousInput):
		return "请求参数无效"
	case errors.Is(err, entity.ErrEmptyAnswer):
		return "AI未能生成有效答案"
	default:
		return fmt.Sprintf("发生错误: %s", err)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
