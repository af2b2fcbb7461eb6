package dto

import (
	"time"

	"github.com/flamekit/flame-api/internal/models"
)

// SubmissionDTO represents a form submission in API responses
type SubmissionDTO struct {
	ID           uint64                  `json:"id"`
	Name         string                  `json:"name"`
	Email        string                  `json:"email"`
	Message      string                  `json:"message"`
	Metadata     string                  `json:"metadata,omitempty"`
	Status       models.SubmissionStatus `json:"status"`
	ReviewedByID *uint64                 `json:"reviewed_by_id"`
	ReviewedAt   *time.Time              `json:"reviewed_at"`
	CreatedAt    time.Time               `json:"created_at"`
}

// SubmissionListResponse represents a paginated list of submissions
type SubmissionListResponse struct {
	Submissions []SubmissionDTO `json:"submissions"`
	Page        int             `json:"page"`
	PageSize    int             `json:"page_size"`
	TotalCount  int64           `json:"total_count"`
}

// ToSubmissionDTO converts a Submission model to SubmissionDTO
func ToSubmissionDTO(sub models.Submission) SubmissionDTO {
	return SubmissionDTO{
		ID:           sub.ID,
		Name:         sub.Name,
		Email:        sub.Email,
		Message:      sub.Message,
		Metadata:     sub.Metadata,
		Status:       sub.Status,
		ReviewedByID: sub.ReviewedByID,
		ReviewedAt:   sub.ReviewedAt,
		CreatedAt:    sub.CreatedAt,
	}
}

// ToSubmissionListResponse converts submissions and pagination info to a list response
func ToSubmissionListResponse(subs []models.Submission, page, pageSize int, totalCount int64) SubmissionListResponse {
	items := make([]SubmissionDTO, 0, len(subs))
	for _, s := range subs {
		items = append(items, ToSubmissionDTO(s))
	}
	return SubmissionListResponse{
		Submissions: items,
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  totalCount,
	}
}
