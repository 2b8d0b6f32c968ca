package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/edubrain/answer-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type RecordRepository interface {
	CreateRecord(ctx context.Context, record *entity.AnswerRecord) error
	GetRecordByID(ctx context.Context, id string) (*entity.AnswerRecord, error)
	ListRecentRecords(ctx context.Context, limit int) ([]*entity.AnswerRecord, error)
	GetRecordStats(ctx context.Context) (*entity.RecordStats, error)
}

type RecordPostgres struct {
	db *pgxpool.Pool
}

func NewRecordPostgres(db *pgxpool.Pool) *RecordPostgres {
	return &RecordPostgres{
		db: db,
	}
}

// CreateRecord persists a single resolved answer
func (r *RecordPostgres) CreateRecord(ctx context.Context, record *entity.AnswerRecord) error {
	recordID, err := uuid.Parse(record.ID)
	if err != nil {
		return fmt.Errorf("invalid record ID: %w", err)
	}

	const q = `
		insert into answer_records (id, question, question_type, options, answer, source, provider, latency_ms, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.Exec(ctx, q,
		pgtype.UUID{
			Bytes: recordID,
			Valid: true,
		},
		record.Question,
		string(record.Type),
		record.Options,
		record.Answer,
		string(record.Source),
		record.Provider,
		record.LatencyMS,
		pgtype.Timestamp{Time: record.CreatedAt, Valid: true},
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to create answer record", zap.Error(err))
		return err
	}

	return nil
}

// GetRecordByID retrieves an answer record by its ID
func (r *RecordPostgres) GetRecordByID(ctx context.Context, id string) (*entity.AnswerRecord, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record ID: %w", err)
	}

	const q = `
		select id, question, question_type, options, answer, source, provider, latency_ms, created_at
		from answer_records
		where id = $1`

	row := r.db.QueryRow(ctx, q, pgtype.UUID{
		Bytes: recordID,
		Valid: true,
	})

	record, err := scanAnswerRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrRecordNotFound
		}
		ctxzap.Error(ctx, "failed to get answer record", zap.Error(err))
		return nil, err
	}

	return record, nil
}

// ListRecentRecords retrieves the newest records, newest first
func (r *RecordPostgres) ListRecentRecords(ctx context.Context, limit int) ([]*entity.AnswerRecord, error) {
	const q = `
		select id, question, question_type, options, answer, source, provider, latency_ms, created_at
		from answer_records
		order by created_at desc
		limit $1`

	rows, err := r.db.Query(ctx, q, int32(limit))
	if err != nil {
		ctxzap.Error(ctx, "failed to list answer records", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	records := make([]*entity.AnswerRecord, 0, limit)
	for rows.Next() {
		record, err := scanAnswerRecord(rows)
		if err != nil {
			ctxzap.Error(ctx, "failed to scan answer record", zap.Error(err))
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		ctxzap.Error(ctx, "failed to read answer records", zap.Error(err))
		return nil, err
	}

	return records, nil
}

// GetRecordStats aggregates the total record count and per-type counts
func (r *RecordPostgres) GetRecordStats(ctx context.Context) (*entity.RecordStats, error) {
	const q = `
		select question_type, count(*)
		from answer_records
		group by question_type`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		ctxzap.Error(ctx, "failed to get record stats", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	stats := &entity.RecordStats{
		ByType: make(map[entity.QuestionType]int64),
	}
	for rows.Next() {
		var (
			questionType string
			count        int64
		)
		if err := rows.Scan(&questionType, &count); err != nil {
			ctxzap.Error(ctx, "failed to scan record stats", zap.Error(err))
			return nil, err
		}
		stats.ByType[entity.QuestionType(questionType)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		ctxzap.Error(ctx, "failed to read record stats", zap.Error(err))
		return nil, err
	}

	return stats, nil
}

func scanAnswerRecord(row pgx.Row) (*entity.AnswerRecord, error) {
	var (
		id           pgtype.UUID
		question     string
		questionType string
		options      string
		answer       string
		source       string
		provider     string
		latencyMS    int64
		createdAt    pgtype.Timestamp
	)

	err := row.Scan(&id, &question, &questionType, &options, &answer, &source, &provider, &latencyMS, &createdAt)
	if err != nil {
		return nil, err
	}

	return &entity.AnswerRecord{
		ID:        uuid.UUID(id.Bytes).String(),
		Question:  question,
		Type:      entity.QuestionType(questionType),
		Options:   options,
		Answer:    answer,
		Source:    entity.AnswerSource(source),
		Provider:  provider,
		LatencyMS: latencyMS,
		CreatedAt: createdAt.Time,
	}, nil
}
