// Package tickets reads ticket timestamps and stores computed SLA outcomes.
// Outcomes go to ticket_sla_results, never back into tickets.
package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mark3748/helpdesk-sla/internal/batch"
)

type DB interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const listSQL = `select id, priority, opened_at, acknowledged_at, suspended_at, resumed_at, closed_at
from tickets where tenant=$1 order by opened_at, id`

const upsertSQL = `insert into ticket_sla_results
    (ticket_id, tenant, batch_id, tmc, tms, tsosp, teff, acknowledge_violation, resolve_violation, error, computed_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, nullif($10, ''), $11)
on conflict (ticket_id) do update set
    tenant = excluded.tenant,
    batch_id = excluded.batch_id,
    tmc = excluded.tmc,
    tms = excluded.tms,
    tsosp = excluded.tsosp,
    teff = excluded.teff,
    acknowledge_violation = excluded.acknowledge_violation,
    resolve_violation = excluded.resolve_violation,
    error = excluded.error,
    computed_at = excluded.computed_at`

// List returns the tickets of tenant in opening order.
func List(ctx context.Context, db DB, tenant string) ([]batch.Ticket, error) {
	rows, err := db.Query(ctx, listSQL, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []batch.Ticket
	for rows.Next() {
		var t batch.Ticket
		if err := rows.Scan(&t.ID, &t.Priority, &t.OpenedAt, &t.AcknowledgedAt, &t.SuspendedAt, &t.ResumedAt, &t.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveOutcomes upserts one result row per outcome in a single transaction:
// either the whole batch is stored or none of it.
func SaveOutcomes(ctx context.Context, db DB, tenant string, batchID uuid.UUID, out []batch.Outcome, at time.Time) error {
	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		for _, o := range out {
			if _, err := tx.Exec(ctx, upsertSQL,
				o.TicketID, tenant, batchID, o.TMC, o.TMS, o.TSOSP, o.TEFF,
				o.AcknowledgeViolation, o.ResolveViolation, o.Error, at,
			); err != nil {
				return fmt.Errorf("save outcome %s: %w", o.TicketID, err)
			}
		}
		return nil
	})
}
