package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/flamekit/flame-api/internal/events"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/utils"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService handles user-scoped notifications.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	leadRepo         repository.LeadRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository, leadRepo repository.LeadRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		leadRepo:         leadRepo,
	}
}

// ListNotifications lists a user's notifications.
func (s *NotificationService) ListNotifications(userID uint64, unreadOnly bool, page utils.PaginationParams) ([]models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.ListByUser(userID, unreadOnly, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead marks one of the user's notifications read.
func (s *NotificationService) MarkRead(userID, id uint64) error {
	if _, err := s.notificationRepo.FindByID(userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to find notification: %w", err)
	}

	return s.notificationRepo.MarkRead(userID, id)
}

// MarkAllRead marks all of a user's notifications read.
func (s *NotificationService) MarkAllRead(userID uint64) error {
	return s.notificationRepo.MarkAllRead(userID)
}

// Delete removes one of the user's notifications.
func (s *NotificationService) Delete(userID, id uint64) error {
	if _, err := s.notificationRepo.FindByID(userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to find notification: %w", err)
	}

	return s.notificationRepo.Delete(userID, id)
}

// RegisterLeadSubscribers wires the lead events into assignee notifications.
// Handlers are best-effort: persistence failures are logged and swallowed.
func (s *NotificationService) RegisterLeadSubscribers(bus *events.Bus) {
	bus.Subscribe(events.LeadStatusChanged, func(payload interface{}) {
		evt, ok := payload.(events.LeadStatusChangedEvent)
		if !ok {
			return
		}
		s.notifyAssignee(evt.OrganizationID, evt.LeadID, models.NotificationTypeLeadAssigned,
			"Lead status changed",
			fmt.Sprintf("Lead #%d moved from %s to %s", evt.LeadID, evt.PreviousStatus, evt.NewStatus))
	})

	bus.Subscribe(events.LeadConverted, func(payload interface{}) {
		evt, ok := payload.(events.LeadConvertedEvent)
		if !ok {
			return
		}
		s.notifyAssignee(evt.OrganizationID, evt.LeadID, models.NotificationTypeLeadConverted,
			"Lead converted",
			fmt.Sprintf("Lead #%d converted at %.2f", evt.LeadID, evt.Value))
	})
}

func (s *NotificationService) notifyAssignee(organizationID, leadID uint64, typ models.NotificationType, title, body string) {
	lead, err := s.leadRepo.FindByID(organizationID, leadID)
	if err != nil || lead.AssigneeID == nil {
		return
	}

	n := &models.Notification{
		UserID: *lead.AssigneeID,
		Type:   typ,
		Title:  title,
		Body:   body,
	}
	if err := s.notificationRepo.Create(n); err != nil {
		log.Printf("failed to create notification for lead %d: %v", leadID, err)
	}
}
