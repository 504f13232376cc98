package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// constraintHints names the schema constraints whose violation points at a
// known ordering race rather than a bug.
var constraintHints = map[string]string{
	"ux_purchased_orders_outstanding_order":     "outstanding order was finalized twice",
	"ux_purchased_orders_number":                "purchased order number sequence reused",
	"ux_outbox_events_order_purchased":          "order.purchased emitted twice for one order",
	"ux_outstanding_order_constructed_items_ci": "constructed item already in another order",
	"ux_offers_code":                            "offer code already exists",
	"ux_users_auth_uid":                         "user registered concurrently",
	"ck_categories_not_own_parent":              "category parent loop",
}

// PGDetails is the driver-independent part of a Postgres error.
type PGDetails struct {
	Code       string `json:"code"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

// ErrorDump is the log-only view of an error. It never reaches clients.
type ErrorDump struct {
	TopMessage string     `json:"top_message"`
	Code       Code       `json:"code,omitempty"`
	Chain      []string   `json:"chain,omitempty"`
	PG         *PGDetails `json:"pg,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), PG: pgDetails(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

// Fields flattens the dump into structured log fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.PG != nil {
		fields["pg_code"] = d.PG.Code
		fields["pg_constraint"] = d.PG.Constraint
		fields["pg_table"] = d.PG.Table
		fields["pg_column"] = d.PG.Column
		fields["pg_detail"] = d.PG.Detail
		fields["pg_message"] = d.PG.Message
		if d.PG.Hint != "" {
			fields["pg_hint"] = d.PG.Hint
		}
	}
	return fields
}

// pgDetails reads whichever Postgres driver error is in the chain: pgx
// behind gorm, lib/pq behind goose.
func pgDetails(err error) *PGDetails {
	var out *PGDetails
	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		out = &PGDetails{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	case errors.As(err, &pqErr):
		out = &PGDetails{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	default:
		return nil
	}
	out.Hint = constraintHints[out.Constraint]
	return out
}
