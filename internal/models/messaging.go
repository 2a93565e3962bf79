package models

import "time"

// SMSTemplate holds the reusable message bodies used by template-based
// sends. Placeholders use {{name}} syntax.
type SMSTemplate struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	TemplateKey  string `gorm:"type:varchar(255);not null;uniqueIndex"`
	TemplateText string `gorm:"type:text;not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message records an outbound SMS delivered on behalf of a customer, so
// conversation history survives gateway-side retention limits.
type Message struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	CustomerID string `gorm:"type:varchar(36);index"`
	BookingID  string `gorm:"type:varchar(36)"`
	Direction  string `gorm:"type:varchar(20);not null;default:'outbound'"`
	MessageSID string `gorm:"type:varchar(64)"`
	Body       string `gorm:"type:text;not null"`
	Status     string `gorm:"type:varchar(50);not null;default:'sent'"`
	FromNumber string `gorm:"type:varchar(32)"`
	ToNumber   string `gorm:"type:varchar(32);not null"`
	CreatedAt  time.Time
}
