package sla

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type policyDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const rulesSQL = `select priority, ack_days, ack_hours, resolve_days, resolve_hours from sla_rules where tenant=$1 order by position, id`

// LoadRuleSet returns the rules configured for tenant. Later rows with an
// already seen priority replace the earlier one.
func LoadRuleSet(ctx context.Context, db policyDB, tenant string) (*RuleSet, error) {
	rows, err := db.Query(ctx, rulesSQL, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := NewRuleSet(tenant)
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.Priority, &r.Acknowledge.Days, &r.Acknowledge.Hours, &r.Resolve.Days, &r.Resolve.Hours); err != nil {
			return nil, err
		}
		set.Add(r)
	}
	return set, rows.Err()
}
