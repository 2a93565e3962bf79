package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"venueq/internal/dto"
	"venueq/internal/models"
	"venueq/internal/sms"
)

// sendSMS delivers a single message. Template sends resolve the template
// row first; plain sends use the payload's message as-is. When the payload
// names a customer or booking, the delivered message is recorded so the
// conversation history stays queryable.
func (d Deps) sendSMS(ctx context.Context, payload datatypes.JSON) (any, error) {
	p, err := decodePayload[dto.SendSMSPayload](payload)
	if err != nil {
		return nil, err
	}

	body := p.Message
	if p.Template != "" {
		tmpl, err := d.Messaging.ActiveTemplate(ctx, p.Template)
		if err != nil {
			return nil, err
		}
		if tmpl == nil {
			return nil, fmt.Errorf("sms template not found: %s", p.Template)
		}

		body = sms.Render(tmpl.TemplateText, p.Variables)
		if strings.Contains(body, "{{contact_phone}}") {
			body = strings.ReplaceAll(body, "{{contact_phone}}", d.ContactPhone)
		}
	}

	res, err := d.SMS.Send(ctx, p.To, body)
	if err != nil {
		return nil, err
	}

	if p.CustomerID != "" || p.BookingID != "" {
		msg := &models.Message{
			CustomerID: p.CustomerID,
			BookingID:  p.BookingID,
			Direction:  "outbound",
			MessageSID: res.SID,
			Body:       body,
			Status:     "sent",
			FromNumber: d.SMS.From(),
			ToNumber:   p.To,
		}
		if err := d.Messaging.RecordMessage(ctx, msg); err != nil {
			// The message went out; a logging failure should not retry it.
			d.Logger.Error("failed to record outbound message",
				zap.String("sid", res.SID), zap.Error(err))
		}
	}

	return res, nil
}

// sendBulkSMS fans one message out to many recipients sequentially and
// reports per-recipient outcomes. A single refused number does not fail the
// whole job.
func (d Deps) sendBulkSMS(ctx context.Context, payload datatypes.JSON) (any, error) {
	p, err := decodePayload[dto.SendBulkSMSPayload](payload)
	if err != nil {
		return nil, err
	}

	sent := 0
	failed := make([]string, 0)
	for _, rcpt := range p.Recipients {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := d.SMS.Send(ctx, rcpt.Phone, p.Message)
		if err != nil {
			d.Logger.Warn("bulk sms delivery failed",
				zap.String("customer_id", rcpt.CustomerID), zap.Error(err))
			failed = append(failed, rcpt.CustomerID)
			continue
		}
		sent++

		if err := d.Messaging.RecordMessage(ctx, &models.Message{
			CustomerID: rcpt.CustomerID,
			Direction:  "outbound",
			MessageSID: res.SID,
			Body:       p.Message,
			Status:     "sent",
			FromNumber: d.SMS.From(),
			ToNumber:   rcpt.Phone,
		}); err != nil {
			d.Logger.Error("failed to record outbound message",
				zap.String("sid", res.SID), zap.Error(err))
		}
	}

	if sent == 0 {
		return nil, fmt.Errorf("all %d deliveries failed", len(p.Recipients))
	}

	return map[string]any{
		"sent":         sent,
		"failed":       failed,
		"completed_at": time.Now().Format(time.RFC3339),
	}, nil
}
