package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

// LineQuantityInput describes one order line checked before charging.
type LineQuantityInput struct {
	ConstructedItemID uuid.UUID
	Name              string
	Quantity          int
}

// LineQuantityViolation is returned to callers when a line is out of range.
type LineQuantityViolation struct {
	ConstructedItemID uuid.UUID `json:"constructed_item_id"`
	Name              string    `json:"name,omitempty"`
	MaxQty            int       `json:"max_qty"`
	RequestedQty      int       `json:"requested_qty"`
}

// ValidateLineQuantities ensures every line has a quantity between 1 and max.
// A max of zero or less disables the upper bound.
func ValidateLineQuantities(lines []LineQuantityInput, max int) error {
	var violations []LineQuantityViolation
	for _, line := range lines {
		if line.Quantity >= 1 && (max <= 0 || line.Quantity <= max) {
			continue
		}
		violations = append(violations, LineQuantityViolation{
			ConstructedItemID: line.ConstructedItemID,
			Name:              line.Name,
			MaxQty:            max,
			RequestedQty:      line.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity out of range for %d line(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
