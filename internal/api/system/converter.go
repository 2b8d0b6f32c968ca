package system

import "github.com/edubrain/answer-backend/internal/entity"

// toRecordDTO converts an AnswerRecord entity to its API representation
func toRecordDTO(record *entity.AnswerRecord) *entity.RecordDTO {
	return &entity.RecordDTO{
		ID:        record.ID,
		Question:  record.Question,
		Type:      record.Type,
		Options:   record.Options,
		Answer:    record.Answer,
		Source:    record.Source,
		Provider:  record.Provider,
		LatencyMS: record.LatencyMS,
		CreatedAt: record.CreatedAt,
	}
}

func toRecordDTOs(records []*entity.AnswerRecord) []*entity.RecordDTO {
	dtos := make([]*entity.RecordDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, toRecordDTO(record))
	}
	return dtos
}
