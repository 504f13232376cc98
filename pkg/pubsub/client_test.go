package pubsub

import (
	"testing"

	"github.com/angelmondragon/restaurant-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "restaurant-prod"}

	if got := c.subscriptionResourceName("orders-analytics"); got != "projects/restaurant-prod/subscriptions/orders-analytics" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	full := "projects/other/subscriptions/orders"
	if got := c.subscriptionResourceName(full); got != full {
		t.Fatalf("expected full resource name to pass through, got %q", got)
	}
	if got := c.topicResourceName(" order-events "); got != "projects/restaurant-prod/topics/order-events" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := c.topicResourceName(""); got != "" {
		t.Fatalf("expected empty topic name, got %q", got)
	}
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{OrdersSubscription: " "}); len(names) != 0 {
		t.Fatalf("expected no subscriptions, got %v", names)
	}
	names := subscriptionNames(config.PubSubConfig{OrdersSubscription: "orders-sub"})
	if len(names) != 1 || names[0] != "orders-sub" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("topic") != nil {
		t.Fatal("expected nil publisher for nil client")
	}
	if c.Subscription("sub") != nil {
		t.Fatal("expected nil subscriber for nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}
