package dto

import (
	"time"

	"github.com/flamekit/flame-api/internal/models"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID        uint64                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Body      string                  `json:"body"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
}

// NotificationListResponse represents a list of notifications with the total
type NotificationListResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	TotalCount    int64             `json:"total_count"`
}

// ToNotificationDTO converts a Notification model to NotificationDTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// ToNotificationListResponse converts notifications to a list response
func ToNotificationListResponse(notifications []models.Notification, totalCount int64) NotificationListResponse {
	items := make([]NotificationDTO, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, ToNotificationDTO(n))
	}
	return NotificationListResponse{
		Notifications: items,
		TotalCount:    totalCount,
	}
}
