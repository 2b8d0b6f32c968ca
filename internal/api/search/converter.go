package search

import "github.com/edubrain/answer-backend/internal/entity"

// toSearchResponse converts a SearchResult to the OCS success envelope
func toSearchResponse(result *entity.SearchResult) *entity.SearchResponse {
	return &entity.SearchResponse{
		Code:     1,
		Question: result.Question,
		Answer:   result.Answer,
	}
}
