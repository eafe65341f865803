package api

import (
	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/models"
)

// HealthResponse is the /health endpoint's payload.
type HealthResponse struct {
	Status   string                  `json:"status"`
	Version  string                  `json:"version,omitempty"`
	Database *database.HealthStatus  `json:"database,omitempty"`
}

// DebateResponse is returned by debate creation and every control endpoint.
type DebateResponse struct {
	ID     string                    `json:"id"`
	Status models.ConversationStatus `json:"status"`
}

// ResolveResponse is returned by POST /contradictions/{id}/resolve.
type ResolveResponse struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// QualityResponse is returned by GET /conversations/{id}/quality.
type QualityResponse struct {
	Overall    int                     `json:"overall"`
	Components models.HealthComponents `json:"components"`
	Counts     QualityCounts           `json:"counts"`
	Status     models.HealthStatus     `json:"status"`
}

// QualityCounts breaks down the message/contradiction/loop totals backing
// one QualityResponse.
type QualityCounts struct {
	Messages      int `json:"messages"`
	Contradictions int `json:"contradictions"`
	Loops         int `json:"loops"`
}

// PageMeta is the pagination envelope shared by every paginated list
// response, matching the teacher's limit/offset convention.
type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// ContradictionsPage is returned by GET /conversations/{id}/contradictions.
type ContradictionsPage struct {
	Items []models.Contradiction `json:"items"`
	Page  PageMeta                `json:"page"`
}

// LoopsPage is returned by GET /conversations/{id}/loops.
type LoopsPage struct {
	Items []models.ConversationLoop `json:"items"`
	Page  PageMeta                   `json:"page"`
}

// HealthHistoryResponse is returned by GET /conversations/{id}/health-history.
type HealthHistoryResponse struct {
	Samples []models.HealthSample `json:"samples"`
}

// JudgeAssessmentsResponse is returned by GET /conversations/{id}/judge-assessments.
type JudgeAssessmentsResponse struct {
	Assessments []models.JudgeAssessment `json:"assessments"`
}
