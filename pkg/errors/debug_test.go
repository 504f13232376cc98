package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpReadsPgxErrorAndHintsKnownConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_purchased_orders_outstanding_order", TableName: "purchased_orders"}
	err := Wrap(CodeDependency, fmt.Errorf("insert purchased order: %w", pgErr), "finalize checkout")

	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if dump.PG == nil || dump.PG.Code != "23505" || dump.PG.Table != "purchased_orders" {
		t.Fatalf("expected pg details, got %+v", dump.PG)
	}
	if dump.PG.Hint != "outstanding order was finalized twice" {
		t.Fatalf("unexpected hint %q", dump.PG.Hint)
	}
	if len(dump.Chain) < 3 {
		t.Fatalf("expected the full wrap chain, got %v", dump.Chain)
	}
	fields := dump.Fields()
	if fields["pg_constraint"] != "ux_purchased_orders_outstanding_order" || fields["pg_hint"] == nil {
		t.Fatalf("unexpected log fields %v", fields)
	}
}

func TestDumpReadsPqError(t *testing.T) {
	dump := Dump(fmt.Errorf("goose up: %w", &pq.Error{Code: "42P07", Table: "offers", Message: "relation already exists"}))
	if dump.PG == nil || dump.PG.Code != "42P07" || dump.PG.Hint != "" {
		t.Fatalf("unexpected pg details %+v", dump.PG)
	}
}

func TestDumpWithoutDatabaseError(t *testing.T) {
	dump := Dump(stdErrors.New("square timeout"))
	if dump.PG != nil {
		t.Fatalf("expected no pg details")
	}
	if _, ok := dump.Fields()["pg_code"]; ok {
		t.Fatalf("pg fields should be omitted")
	}
	if empty := Dump(nil); empty.TopMessage != "" || empty.Chain != nil || empty.PG != nil {
		t.Fatalf("nil error should dump empty")
	}
}
