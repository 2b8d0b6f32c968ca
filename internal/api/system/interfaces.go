package system

import (
	"context"

	"github.com/edubrain/answer-backend/internal/entity"
)

type SystemUsecase interface {
	Health() *entity.HealthStatus
	Stats(ctx context.Context) (*entity.ServiceStats, error)
	ClearCache(ctx context.Context) error
	ListRecords(ctx context.Context, limit int) ([]*entity.AnswerRecord, error)
	GetRecord(ctx context.Context, id string) (*entity.AnswerRecord, error)
}
