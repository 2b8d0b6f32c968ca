package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/config"
	"github.com/edubrain/answer-backend/internal/engine"
	"github.com/edubrain/answer-backend/internal/entity"
	"github.com/edubrain/answer-backend/internal/pkg/validator"
	"github.com/edubrain/answer-backend/internal/repository"
)

const serviceVersion = "1.1.0"

const (
	defaultRecordsLimit = 100
	maxRecordsLimit     = 1000
)

// AnswerUsecase implements the answer resolution pipeline: cache, then
// external question banks, then the generative provider.
type AnswerUsecase struct {
	cache      AnswerCache
	lookup     LookupConnector
	ai         AIConnector
	engine     *engine.Engine
	recordRepo repository.RecordRepository
	validator  *validator.Validator
	cfg        *config.Config
	logger     *zap.Logger
	startedAt  time.Time
}

// NewUsecase creates a new answer use case
func NewUsecase(
	cache AnswerCache,
	lookup LookupConnector,
	ai AIConnector,
	eng *engine.Engine,
	recordRepo repository.RecordRepository,
	requestValidator *validator.Validator,
	cfg *config.Config,
	logger *zap.Logger,
) *AnswerUsecase {
	return &AnswerUsecase{
		cache:      cache,
		lookup:     lookup,
		ai:         ai,
		engine:     eng,
		recordRepo: recordRepo,
		validator:  requestValidator,
		cfg:        cfg,
		logger:     logger,
		startedAt:  time.Now(),
	}
}

// Search resolves one question and reports where the answer came from.
func (uc *AnswerUsecase) Search(ctx context.Context, query *entity.SearchQuery) (*entity.SearchResult, error) {
	started := time.Now()

	if query.Question == "" {
		return nil, entity.ErrMissingQuestion
	}
	if uc.cfg.EnableInputValidation {
		if err := uc.validator.ValidateSearch(query); err != nil {
			return nil, err
		}
	}

	if uc.cfg.CacheCfg.Enabled {
		if answer, ok := uc.cache.Get(ctx, query.Question, query.Type, query.Options); ok {
			ctxzap.Info(ctx, "answer served from cache",
				zap.Duration("elapsed", time.Since(started)))

			return &entity.SearchResult{
				Question: query.Question,
				Answer:   answer,
				Source:   entity.SourceCache,
			}, nil
		}
	}

	if uc.cfg.LookupCfg.Enabled {
		if result := uc.searchQuestionBanks(ctx, query); result != nil {
			uc.finish(ctx, query, result, started)
			return result, nil
		}
	}

	result, err := uc.generateAnswer(ctx, query)
	if err != nil {
		return nil, err
	}

	uc.finish(ctx, query, result, started)
	return result, nil
}

// searchQuestionBanks queries the external banks and screens the first
// candidate through the engine. Any failure falls through to the
// generative provider, so errors are logged rather than returned.
func (uc *AnswerUsecase) searchQuestionBanks(ctx context.Context, query *entity.SearchQuery) *entity.SearchResult {
	candidate, err := uc.lookup.Search(ctx, query)
	if err != nil {
		if !errors.Is(err, entity.ErrAnswerNotFound) && !errors.Is(err, entity.ErrProviderDisabled) {
			ctxzap.Warn(ctx, "external question bank lookup failed", zap.Error(err))
		}
		return nil
	}

	verdict := uc.engine.Validate(ctx, candidate.Answer, query.Type, query.Options, query.Question)
	if !verdict.Accepted {
		ctxzap.Info(ctx, "question bank answer rejected",
			zap.String("provider", candidate.Provider),
			zap.String("reason", string(verdict.Reason)))
		return nil
	}

	return &entity.SearchResult{
		Question: query.Question,
		Answer:   uc.engine.Normalize(ctx, candidate.Answer, query.Type, query.Question),
		Source:   entity.SourceDatabase,
		Provider: candidate.Provider,
	}
}

// generateAnswer asks the generative provider and runs the reply through
// the engine. A reply the engine rejects gets one correction round; the
// normalized answer is returned either way, because a shaky answer still
// beats none.
func (uc *AnswerUsecase) generateAnswer(ctx context.Context, query *entity.SearchQuery) (*entity.SearchResult, error) {
	system, prompt := buildPrompts(query)

	reply, err := uc.callAI(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if query.Type != entity.TypeUnspecified {
		verdict := uc.engine.Validate(ctx, engine.StripReply(reply), query.Type, query.Options, query.Question)
		if !verdict.Accepted {
			ctxzap.Info(ctx, "model reply rejected, asking for correction",
				zap.String("reason", string(verdict.Reason)))

			corrected, err := uc.callAI(ctx, correctionSystemPrompt, buildCorrectionPrompt(prompt, reply))
			if err != nil {
				ctxzap.Warn(ctx, "correction round failed, keeping first reply", zap.Error(err))
			} else {
				reply = corrected
			}
		}
	}

	answer := uc.engine.Normalize(ctx, reply, query.Type, query.Question)
	if answer == "" {
		return nil, entity.ErrEmptyAnswer
	}

	return &entity.SearchResult{
		Question: query.Question,
		Answer:   answer,
		Source:   entity.SourceAI,
		Provider: uc.ai.Name(),
	}, nil
}

func buildPrompts(query *entity.SearchQuery) (system, prompt string) {
	// The judgement template carries its own role and format sections.
	if query.Type == entity.TypeJudgement {
		return "", buildJudgementPrompt(query.Question)
	}

	return systemPrompt, buildPrompt(query)
}

func (uc *AnswerUsecase) callAI(ctx context.Context, system, prompt string) (string, error) {
	opts := append(uc.cfg.AICfg.Retry.Options(), retry.Context(ctx))

	return retry.DoWithData(func() (string, error) {
		return uc.ai.GenerateAnswer(ctx, system, prompt)
	}, opts...)
}

// finish stores the resolved answer in the cache and the record store.
// Persistence failures are logged and swallowed: the answer is already
// resolved and must still reach the client.
func (uc *AnswerUsecase) finish(ctx context.Context, query *entity.SearchQuery, result *entity.SearchResult, started time.Time) {
	if uc.cfg.CacheCfg.Enabled {
		uc.cache.Set(ctx, query.Question, query.Type, query.Options, result.Answer)
	}

	record := &entity.AnswerRecord{
		ID:        uuid.New().String(),
		Question:  query.Question,
		Type:      query.Type,
		Options:   query.Options,
		Answer:    result.Answer,
		Source:    result.Source,
		Provider:  result.Provider,
		LatencyMS: time.Since(started).Milliseconds(),
		CreatedAt: time.Now(),
	}
	if err := uc.recordRepo.CreateRecord(ctx, record); err != nil {
		ctxzap.Warn(ctx, "failed to persist answer record", zap.Error(err))
	}

	ctxzap.Info(ctx, "question resolved",
		zap.String("source", string(result.Source)),
		zap.String("provider", result.Provider),
		zap.Duration("elapsed", time.Since(started)))
}

// GetRecord fetches one answer record by its ID.
func (uc *AnswerUsecase) GetRecord(ctx context.Context, id string) (*entity.AnswerRecord, error) {
	record, err := uc.recordRepo.GetRecordByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}

	return record, nil
}

// ListRecords returns the most recent answer records, newest first.
func (uc *AnswerUsecase) ListRecords(ctx context.Context, limit int) ([]*entity.AnswerRecord, error) {
	if limit <= 0 || limit > maxRecordsLimit {
		limit = defaultRecordsLimit
	}

	records, err := uc.recordRepo.ListRecentRecords(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	return records, nil
}

// Stats assembles the service statistics surface.
func (uc *AnswerUsecase) Stats(ctx context.Context) (*entity.ServiceStats, error) {
	stats := &entity.ServiceStats{
		Version:       serviceVersion,
		UptimeSeconds: time.Since(uc.startedAt).Seconds(),
		AIProvider:    uc.ai.Name(),
		Model:         uc.cfg.AIModel(),
		CacheEnabled:  uc.cfg.CacheCfg.Enabled,
	}

	if uc.cfg.CacheCfg.Enabled {
		size, err := uc.cache.Size(ctx)
		if err != nil {
			ctxzap.Warn(ctx, "failed to read cache size", zap.Error(err))
		} else {
			stats.CacheSize = size
		}
	}

	recordStats, err := uc.recordRepo.GetRecordStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get record stats: %w", err)
	}
	stats.RecordCount = recordStats.Total
	stats.RecordsByType = recordStats.ByType

	return stats, nil
}

// ClearCache flushes the answer cache.
func (uc *AnswerUsecase) ClearCache(ctx context.Context) error {
	if !uc.cfg.CacheCfg.Enabled {
		return entity.ErrCacheDisabled
	}

	if err := uc.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	ctxzap.Info(ctx, "answer cache cleared")
	return nil
}

// Health reports basic liveness information for the health endpoint.
func (uc *AnswerUsecase) Health() *entity.HealthStatus {
	return &entity.HealthStatus{
		Status:       "ok",
		Message:      "AI题库服务运行正常",
		Version:      serviceVersion,
		CacheEnabled: uc.cfg.CacheCfg.Enabled,
		AIProvider:   uc.cfg.AICfg.Provider,
		Model:        uc.cfg.AIModel(),
	}
}
