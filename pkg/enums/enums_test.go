package enums

import "testing"

func TestWorstAvailability(t *testing.T) {
	cases := []struct {
		name   string
		values []Availability
		want   Availability
	}{
		{name: "empty", want: AvailabilityAvailable},
		{name: "all available", values: []Availability{AvailabilityAvailable, AvailabilityAvailable}, want: AvailabilityAvailable},
		{name: "temporary wins over available", values: []Availability{AvailabilityAvailable, AvailabilityTemporarilyUnavailable}, want: AvailabilityTemporarilyUnavailable},
		{name: "unavailable wins", values: []Availability{AvailabilityTemporarilyUnavailable, AvailabilityUnavailable, AvailabilityAvailable}, want: AvailabilityUnavailable},
		{name: "blank ignored", values: []Availability{"", AvailabilityTemporarilyUnavailable}, want: AvailabilityTemporarilyUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WorstAvailability(tc.values...); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestOrderProgressOnlyAdvances(t *testing.T) {
	if !OrderProgressPending.CanAdvanceTo(OrderProgressPreparing) {
		t.Fatal("pending -> preparing should be allowed")
	}
	if !OrderProgressPending.CanAdvanceTo(OrderProgressCompleted) {
		t.Fatal("pending -> completed should be allowed")
	}
	if OrderProgressPreparing.CanAdvanceTo(OrderProgressPending) {
		t.Fatal("preparing -> pending must be rejected")
	}
	if OrderProgressCompleted.CanAdvanceTo(OrderProgressCompleted) {
		t.Fatal("repeated transitions must be rejected")
	}
	if OrderProgressPending.CanAdvanceTo("isDelivered") {
		t.Fatal("unknown targets must be rejected")
	}
}

func TestParseHelpers(t *testing.T) {
	if _, err := ParseAvailability("isAvailable"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseAvailability("available"); err == nil {
		t.Fatal("expected error for unknown availability")
	}
	if _, err := ParseOrderProgress("isPreparing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseCheckoutAttemptStatus("refunded"); err == nil {
		t.Fatal("expected error for unknown attempt status")
	}
	if role, err := ParseUserRole("staff"); err != nil || role != UserRoleStaff {
		t.Fatalf("expected staff role, got %q %v", role, err)
	}
	if _, err := ParseOutboxEventType("order.purchased"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
