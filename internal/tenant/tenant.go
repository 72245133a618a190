// Package tenant provides read-only snapshots of a tenant's working calendar
// and SLA rules.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mark3748/helpdesk-sla/internal/calendar"
	"github.com/mark3748/helpdesk-sla/internal/sla"
)

// ErrNotFound is returned for a tenant with neither a calendar nor rules.
var ErrNotFound = errors.New("tenant not found")

// Snapshot is the configuration a batch runs against. Calendar is nil for a
// tenant that has rules but no calendar.
type Snapshot struct {
	Tenant   string
	Calendar *calendar.Calendar
	Rules    *sla.RuleSet
}

type Source interface {
	Snapshot(ctx context.Context, tenant string) (Snapshot, error)
}

// DB is the subset of pgx used by DBSource.
type DB interface {
	calendar.DB
}

// DBSource reads tenant configuration from Postgres.
type DBSource struct {
	DB DB
}

func (s DBSource) Snapshot(ctx context.Context, tenant string) (Snapshot, error) {
	snap := Snapshot{Tenant: tenant}
	cal, err := calendar.Load(ctx, s.DB, tenant)
	switch {
	case errors.Is(err, calendar.ErrNotFound):
	case err != nil:
		return snap, fmt.Errorf("load calendar %s: %w", tenant, err)
	default:
		warnInvalid(ctx, cal)
		snap.Calendar = cal
	}
	rules, err := sla.LoadRuleSet(ctx, s.DB, tenant)
	if err != nil {
		return snap, fmt.Errorf("load rules %s: %w", tenant, err)
	}
	snap.Rules = rules
	if snap.Calendar == nil && rules.Len() == 0 {
		return snap, fmt.Errorf("%w: %s", ErrNotFound, tenant)
	}
	return snap, nil
}

// File is the YAML layout of a tenants file.
//
//	tenants:
//	  acme:
//	    calendar: {...}   # see calendar.Spec
//	    rules:
//	      - {priority: Alta, acknowledge: {hours: 2}, resolve: {days: 1}}
type File struct {
	Tenants map[string]FileTenant `yaml:"tenants"`
}

type FileTenant struct {
	Calendar *calendar.Spec `yaml:"calendar"`
	Rules    []sla.Rule     `yaml:"rules"`
}

// FileSource serves snapshots parsed once from a YAML document.
type FileSource struct {
	snapshots map[string]Snapshot
}

func LoadFile(path string) (*FileSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFile(b)
}

func ParseFile(b []byte) (*FileSource, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode tenants: %w", err)
	}
	src := &FileSource{snapshots: make(map[string]Snapshot, len(f.Tenants))}
	for name, t := range f.Tenants {
		snap := Snapshot{Tenant: name, Rules: sla.NewRuleSet(name, t.Rules...)}
		if t.Calendar != nil {
			cal, err := t.Calendar.Build(name)
			if err != nil {
				return nil, fmt.Errorf("tenant %s: %w", name, err)
			}
			warnInvalid(context.Background(), cal)
			snap.Calendar = cal
		}
		src.snapshots[name] = snap
	}
	return src, nil
}

func (f *FileSource) Snapshot(_ context.Context, tenant string) (Snapshot, error) {
	snap, ok := f.snapshots[tenant]
	if !ok {
		return Snapshot{Tenant: tenant}, fmt.Errorf("%w: %s", ErrNotFound, tenant)
	}
	return snap, nil
}

// Tenants lists the configured tenant names, sorted.
func (f *FileSource) Tenants() []string {
	names := make([]string, 0, len(f.snapshots))
	for n := range f.snapshots {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func warnInvalid(ctx context.Context, cal *calendar.Calendar) {
	if err := cal.Validate(); err != nil {
		l := log.Ctx(ctx)
		if l.GetLevel() == zerolog.Disabled {
			l = &log.Logger
		}
		l.Warn().Str("client", cal.Client).Err(err).Msg("calendar is not well formed")
	}
}
