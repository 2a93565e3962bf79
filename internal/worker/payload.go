package worker

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

var validate = validator.New()

// decodePayload unmarshals and validates a handler's payload. The queue
// does not validate payloads at enqueue time, so every handler checks its
// own input here before doing any work.
func decodePayload[T any](raw datatypes.JSON) (T, error) {
	var payload T

	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("invalid payload format: %w", err)
	}
	if err := validate.Struct(payload); err != nil {
		return payload, fmt.Errorf("payload validation failed: %w", err)
	}
	return payload, nil
}
