package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"venueq/internal/models"
)

// MessagingRepository persists SMS templates and the outbound message log
// used by the send_sms handler.
type MessagingRepository struct {
	db *gorm.DB
}

func NewMessagingRepository(db *gorm.DB) *MessagingRepository {
	return &MessagingRepository{db: db}
}

// ActiveTemplate returns the active template for a key, or (nil, nil) when
// no active template exists.
func (r *MessagingRepository) ActiveTemplate(ctx context.Context, key string) (*models.SMSTemplate, error) {
	var tmpl models.SMSTemplate
	err := r.db.WithContext(ctx).
		Where("template_key = ? AND is_active = ?", key, true).
		First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sms template: %w", err)
	}
	return &tmpl, nil
}

// RecordMessage appends an outbound message to the log.
func (r *MessagingRepository) RecordMessage(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}
