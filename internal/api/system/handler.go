package system

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/api/middleware"
	"github.com/edubrain/answer-backend/internal/entity"
	"github.com/edubrain/answer-backend/internal/pkg/formatter"
	"github.com/edubrain/answer-backend/internal/pkg/logger"
	"github.com/edubrain/answer-backend/internal/pkg/response"
)

type Handler struct {
	usecase SystemUsecase
	limiter *middleware.RateLimiter
}

// NewHandler creates the management API handler. The limiter is optional,
// when present its counters are folded into the stats payload.
func NewHandler(usecase SystemUsecase, limiter *middleware.RateLimiter) *Handler {
	return &Handler{
		usecase: usecase,
		limiter: limiter,
	}
}

// Health handles GET /api/health - Service liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.usecase.Health())
}

// Stats handles GET /api/stats - Service statistics
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Stats")

	stats, err := h.usecase.Stats(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to collect service stats", zap.Error(err))
		response.Message(w, http.StatusInternalServerError, false, "获取统计信息失败")
		return
	}

	if h.limiter != nil {
		stats.RateLimit = h.limiter.Stats()
	}

	response.JSON(w, http.StatusOK, stats)
}

// ClearCache handles POST /api/cache/clear - Flush the answer cache
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ClearCache")

	if err := h.usecase.ClearCache(ctx); err != nil {
		if errors.Is(err, entity.ErrCacheDisabled) {
			response.Message(w, http.StatusOK, false, "缓存未启用")
			return
		}
		ctxzap.Error(ctx, "failed to clear cache", zap.Error(err))
		response.Message(w, http.StatusInternalServerError, false, "清除缓存失败")
		return
	}

	response.Message(w, http.StatusOK, true, "缓存已清除")
}

// GetRecord handles GET /api/records/{id} - One answer record
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetRecord")

	id := chi.URLParam(r, "id")

	record, err := h.usecase.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrRecordNotFound) {
			response.Message(w, http.StatusNotFound, false, "记录不存在")
			return
		}
		ctxzap.Error(ctx, "failed to get answer record", zap.Error(err))
		response.Message(w, http.StatusInternalServerError, false, "获取问答记录失败")
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  toRecordDTO(record),
	})
}

// ListRecords handles GET /api/records - Recent answer records
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListRecords")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.usecase.ListRecords(ctx, limit)
	if err != nil {
		ctxzap.Error(ctx, "failed to list answer records", zap.Error(err))
		response.Message(w, http.StatusInternalServerError, false, "获取问答记录失败")
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(records),
		"records": toRecordDTOs(records),
	})
}

// ExportRecords handles GET /api/records/export - Download records as a file
func (h *Handler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ExportRecords")

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = "markdown"
	}

	format := entity.ExportFormat(formatParam)
	if err := format.Validate(); err != nil {
		ctxzap.Warn(ctx, "invalid export format", zap.String("format", formatParam))
		response.Message(w, http.StatusBadRequest, false, "不支持的导出格式")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.usecase.ListRecords(ctx, limit)
	if err != nil {
		ctxzap.Error(ctx, "failed to list answer records", zap.Error(err))
		response.Message(w, http.StatusInternalServerError, false, "获取问答记录失败")
		return
	}

	factory := formatter.NewFactory()
	fmtr, err := factory.Create(format)
	if err != nil {
		ctxzap.Error(ctx, "format not implemented", zap.Error(err))
		response.Message(w, http.StatusNotImplemented, false, "导出格式未实现")
		return
	}

	data, err := fmtr.Format(records)
	if err != nil {
		ctxzap.Error(ctx, "failed to format records", zap.Error(err))
		response.Message(w, http.StatusInternalServerError, false, "导出记录失败")
		return
	}

	ctxzap.Info(ctx, "records exported",
		zap.Int("count", len(records)),
		zap.String("format", string(format)),
	)
	w.Header().Set("Content-Type", fmtr.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"qa-records-%s%s\"",
		time.Now().Format("20060102-150405"), fmtr.FileExtension()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

