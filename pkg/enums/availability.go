package enums

import "fmt"

// Availability maps to the availability_enum in Postgres.
type Availability string

const (
	AvailabilityAvailable              Availability = "isAvailable"
	AvailabilityTemporarilyUnavailable Availability = "isTemporarilyUnavailable"
	AvailabilityUnavailable            Availability = "isUnavailable"
)

var validAvailabilities = []Availability{
	AvailabilityAvailable,
	AvailabilityTemporarilyUnavailable,
	AvailabilityUnavailable,
}

func (a Availability) String() string {
	return string(a)
}

// IsValid reports whether the value is a known Availability.
func (a Availability) IsValid() bool {
	for _, candidate := range validAvailabilities {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAvailability converts raw input into an Availability.
func ParseAvailability(value string) (Availability, error) {
	for _, candidate := range validAvailabilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid availability %q", value)
}

func (a Availability) severity() int {
	switch a {
	case AvailabilityAvailable:
		return 0
	case AvailabilityTemporarilyUnavailable:
		return 1
	default:
		return 2
	}
}

// WorstAvailability returns the most restrictive of the given values. An empty
// list resolves to available.
func WorstAvailability(values ...Availability) Availability {
	worst := AvailabilityAvailable
	for _, v := range values {
		if v == "" {
			continue
		}
		if v.severity() > worst.severity() {
			worst = v
		}
	}
	return worst
}
