package repository

import (
	"github.com/flamekit/flame-api/internal/database"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/utils"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a notification
func (r *GormNotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

// FindByID finds a notification owned by the user
func (r *GormNotificationRepository) FindByID(userID, id uint64) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.Where("user_id = ?", userID).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser lists a user's notifications, newest first
func (r *GormNotificationRepository) ListByUser(userID uint64, unreadOnly bool, page utils.PaginationParams) ([]models.Notification, int64, error) {
	var notifications []models.Notification

	query := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").
		Scopes(database.Paginate(page)).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead marks a single notification read
func (r *GormNotificationRepository) MarkRead(userID, id uint64) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
}

// MarkAllRead marks all of a user's notifications read
func (r *GormNotificationRepository) MarkAllRead(userID uint64) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

// Delete removes a notification
func (r *GormNotificationRepository) Delete(userID, id uint64) error {
	return r.db.Where("user_id = ?", userID).
		Delete(&models.Notification{}, id).Error
}
