package dto

// SendSMSPayload is either a plain message or a template send. Template
// sends resolve the template key against sms_templates and substitute
// {{name}} placeholders from Variables.
type SendSMSPayload struct {
	To         string            `json:"to" validate:"required,e164"`
	Message    string            `json:"message" validate:"required_without=Template"`
	Template   string            `json:"template,omitempty"`
	Variables  map[string]string `json:"variables,omitempty"`
	CustomerID string            `json:"customer_id,omitempty"`
	BookingID  string            `json:"booking_id,omitempty"`
}

type BulkRecipient struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Phone      string `json:"phone" validate:"required,e164"`
}

type SendBulkSMSPayload struct {
	Recipients []BulkRecipient `json:"recipients" validate:"required,min=1,dive"`
	Message    string          `json:"message" validate:"required"`
}
