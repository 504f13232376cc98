package enums

import "fmt"

// OrderProgress tracks a purchased order through the kitchen.
type OrderProgress string

const (
	OrderProgressPending   OrderProgress = "isPending"
	OrderProgressPreparing OrderProgress = "isPreparing"
	OrderProgressCompleted OrderProgress = "isCompleted"
)

var orderProgressRank = map[OrderProgress]int{
	OrderProgressPending:   0,
	OrderProgressPreparing: 1,
	OrderProgressCompleted: 2,
}

func (p OrderProgress) String() string {
	return string(p)
}

// IsValid reports whether the value is a known OrderProgress.
func (p OrderProgress) IsValid() bool {
	_, ok := orderProgressRank[p]
	return ok
}

// CanAdvanceTo reports whether moving from p to next goes strictly forward.
func (p OrderProgress) CanAdvanceTo(next OrderProgress) bool {
	from, ok := orderProgressRank[p]
	if !ok {
		return false
	}
	to, ok := orderProgressRank[next]
	if !ok {
		return false
	}
	return to > from
}

// ParseOrderProgress converts raw input into an OrderProgress.
func ParseOrderProgress(value string) (OrderProgress, error) {
	candidate := OrderProgress(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid order progress %q", value)
	}
	return candidate, nil
}
