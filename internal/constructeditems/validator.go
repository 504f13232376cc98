package constructeditems

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/restaurant-backend/internal/catalog"
	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
	"github.com/angelmondragon/restaurant-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restaurant-backend/pkg/errors"
)

// Rule names reported in requirement violations.
const (
	RuleMinimumItems     = "minimum_items"
	RuleMaximumItems     = "maximum_items"
	RuleMinimumModifiers = "minimum_modifiers"
	RuleMaximumModifiers = "maximum_modifiers"
	RuleUnavailable      = "unavailable"
)

// Violation is one unmet requirement. It implements error so violations can
// be combined with multierr.
type Violation struct {
	Rule           string     `json:"rule"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	CategoryName   string     `json:"category_name,omitempty"`
	CategoryItemID *uuid.UUID `json:"category_item_id,omitempty"`
	ModifierID     *uuid.UUID `json:"modifier_id,omitempty"`
	Required       int        `json:"required,omitempty"`
	Actual         int        `json:"actual"`
}

func (v Violation) Error() string {
	switch v.Rule {
	case RuleMinimumItems:
		return fmt.Sprintf("%s requires at least %d selection(s), has %d", v.CategoryName, v.Required, v.Actual)
	case RuleMaximumItems:
		return fmt.Sprintf("%s allows at most %d selection(s), has %d", v.CategoryName, v.Required, v.Actual)
	case RuleMinimumModifiers:
		return fmt.Sprintf("category item %s requires at least %d modifier(s), has %d", v.CategoryItemID, v.Required, v.Actual)
	case RuleMaximumModifiers:
		return fmt.Sprintf("category item %s allows at most %d modifier(s), has %d", v.CategoryItemID, v.Required, v.Actual)
	default:
		return "selection is not available"
	}
}

// Selection is everything the validator needs about one constructed item.
type Selection struct {
	Subcategories []models.Category
	CategoryItems []catalog.CategoryItemView
	Modifiers     []catalog.ModifierView
}

// countBySubcategory tallies attached category items per direct subcategory.
func (s Selection) countBySubcategory() map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(s.Subcategories))
	for _, ci := range s.CategoryItems {
		counts[ci.CategoryID]++
	}
	return counts
}

// MinimumsMet reports whether every subcategory declaring minimum_items has at
// least that many attached category items. No constrained subcategories means
// the selection is trivially satisfied.
func (s Selection) MinimumsMet() bool {
	counts := s.countBySubcategory()
	for _, sub := range s.Subcategories {
		if sub.MinimumItems == nil {
			continue
		}
		if counts[sub.ID] < *sub.MinimumItems {
			return false
		}
	}
	return true
}

// Violations evaluates every cardinality rule plus availability. The combined
// error is nil when the selection can be purchased.
func (s Selection) Violations() error {
	var errs error
	counts := s.countBySubcategory()
	for _, sub := range s.Subcategories {
		id := sub.ID
		actual := counts[sub.ID]
		if sub.MinimumItems != nil && actual < *sub.MinimumItems {
			errs = multierr.Append(errs, Violation{
				Rule: RuleMinimumItems, CategoryID: &id, CategoryName: sub.Name,
				Required: *sub.MinimumItems, Actual: actual,
			})
		}
		if sub.MaximumItems != nil && actual > *sub.MaximumItems {
			errs = multierr.Append(errs, Violation{
				Rule: RuleMaximumItems, CategoryID: &id, CategoryName: sub.Name,
				Required: *sub.MaximumItems, Actual: actual,
			})
		}
	}

	modifierCounts := make(map[uuid.UUID]int, len(s.CategoryItems))
	for _, m := range s.Modifiers {
		modifierCounts[m.CategoryItemID]++
		if m.Availability != enums.AvailabilityAvailable {
			id := m.ID
			errs = multierr.Append(errs, Violation{Rule: RuleUnavailable, ModifierID: &id})
		}
	}
	for _, ci := range s.CategoryItems {
		id := ci.ID
		actual := modifierCounts[ci.ID]
		if ci.Availability != enums.AvailabilityAvailable {
			errs = multierr.Append(errs, Violation{Rule: RuleUnavailable, CategoryItemID: &id})
		}
		if ci.MinimumModifiers != nil && actual < *ci.MinimumModifiers {
			errs = multierr.Append(errs, Violation{
				Rule: RuleMinimumModifiers, CategoryItemID: &id,
				Required: *ci.MinimumModifiers, Actual: actual,
			})
		}
		if ci.MaximumModifiers != nil && actual > *ci.MaximumModifiers {
			errs = multierr.Append(errs, Violation{
				Rule: RuleMaximumModifiers, CategoryItemID: &id,
				Required: *ci.MaximumModifiers, Actual: actual,
			})
		}
	}
	return errs
}

// RequirementsError turns combined violations into a REQUIREMENTS_UNMET error
// listing each one. It returns nil when errs is nil.
func RequirementsError(constructedItemID uuid.UUID, errs error) error {
	if errs == nil {
		return nil
	}
	list := multierr.Errors(errs)
	violations := make([]Violation, 0, len(list))
	for _, err := range list {
		if v, ok := err.(Violation); ok {
			violations = append(violations, v)
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeRequirementsUnmet, errs, fmt.Sprintf("constructed item has %d unmet requirement(s)", len(list))).
		WithDetails(map[string]any{
			"constructed_item_id": constructedItemID,
			"violations":          violations,
		})
}
