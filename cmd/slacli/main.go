// Command slacli queues tenant evaluations and evaluates ticket files
// offline against a tenants YAML file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	"github.com/mark3748/helpdesk-sla/internal/batch"
	"github.com/mark3748/helpdesk-sla/internal/jobs"
	"github.com/mark3748/helpdesk-sla/internal/tenant"
)

const usage = `usage:
  slacli run <tenant>                              queue a tenant-wide evaluation
  slacli evaluate <tenants.yaml> <tenant> <file|->  evaluate a JSON ticket array`

var errUsage = errors.New(usage)

func main() {
	addr := apppkg.GetEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, rdb); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, rdb *redis.Client) error {
	if len(args) < 1 {
		return errUsage
	}
	switch args[0] {
	case "run":
		if len(args) != 2 {
			return errUsage
		}
		job := jobs.EvaluateTenant{JobID: uuid.New(), Tenant: args[1], RequestedBy: "slacli"}
		if err := jobs.Enqueue(ctx, rdb, jobs.TypeEvaluateTenant, job); err != nil {
			return err
		}
		fmt.Fprintln(stdout, job.JobID)
		return nil
	case "evaluate":
		if len(args) != 4 {
			return errUsage
		}
		return evaluate(ctx, args[1], args[2], args[3], stdin, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func evaluate(ctx context.Context, tenantsFile, name, ticketsFile string, stdin io.Reader, stdout io.Writer) error {
	src, err := tenant.LoadFile(tenantsFile)
	if err != nil {
		return err
	}
	snap, err := src.Snapshot(ctx, name)
	if err != nil {
		return err
	}
	in := stdin
	if ticketsFile != "-" {
		f, err := os.Open(ticketsFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	var list []batch.Ticket
	if err := json.NewDecoder(in).Decode(&list); err != nil {
		return fmt.Errorf("decode tickets: %w", err)
	}
	out, err := batch.New(apppkg.GetSLAConfig().BatchConfig(snap)).Process(ctx, list)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(batch.NewReport(snap.Tenant, out, time.Now().UTC()))
}
