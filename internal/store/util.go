package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// GenerateAttemptID creates a unique ID for one attempt within a delivery.
// The index keeps IDs readable and sortable inside a trail; the UUID suffix
// keeps them unique across re-deliveries of the same delivery ID.
func GenerateAttemptID(deliveryID string, index int) string {
	return fmt.Sprintf("%s-%04d-%s", deliveryID, index, uuid.NewString()[:8])
}
