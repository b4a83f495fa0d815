package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/data"
	"github.com/target/obd-dialer/internal/domain/model"
)

const purgePageSize = 500

type purgeRetriesOptions struct {
	Day    model.DayOfTheWeek
	DryRun bool
}

func parsePurgeRetriesFlags(args []string) (purgeRetriesOptions, error) {
	fs := flag.NewFlagSet("purge-retries", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := purgeRetriesOptions{}
	var day string
	fs.StringVar(&day, "day", "", "Retry day to purge (MONDAY..SUNDAY)")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Count matching retries without deleting them")

	if err := fs.Parse(args); err != nil {
		return purgeRetriesOptions{}, err
	}
	if day == "" {
		return purgeRetriesOptions{}, errors.New("--day is required")
	}
	if err := opts.Day.UnmarshalText([]byte(day)); err != nil {
		return purgeRetriesOptions{}, err
	}
	return opts, nil
}

func runPurgeRetries(cmdCtx *commandContext, args []string) error {
	opts, err := parsePurgeRetriesFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 5*time.Minute)
	defer cancel()

	conns, err := connectInfra(ctx, cmdCtx, false)
	if err != nil {
		return err
	}
	defer cmdCtx.closeInfra(conns)

	n, err := purgeRetries(ctx, data.NewCallRetryRepo(conns.DB), opts, purgePageSize)
	if err != nil {
		return err
	}
	verb := "deleted"
	if opts.DryRun {
		verb = "would delete"
	}
	cmdCtx.Logger.Info("call retries purged", "day", opts.Day, "count", n, "dry_run", opts.DryRun)
	return writef(cmdCtx.Out, "%s %d call retries for %s\n", verb, n, opts.Day)
}

// purgeRetries collects every retry for the day before deleting any, so deletions never
// shift the pages still being read. Rows removed concurrently are not counted.
func purgeRetries(ctx context.Context, repo core.CallRetryRepository, opts purgeRetriesOptions, pageSize int) (int, error) {
	var ids []string
	for page := 1; ; page++ {
		batch, err := repo.ListForDay(ctx, opts.Day, page, pageSize)
		if err != nil {
			return 0, fmt.Errorf("list call retries for %s: %w", opts.Day, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, r := range batch {
			ids = append(ids, r.ID)
		}
	}
	if opts.DryRun {
		return len(ids), nil
	}

	deleted := 0
	for _, id := range ids {
		ok, err := repo.Delete(ctx, id)
		if err != nil {
			return deleted, fmt.Errorf("delete call retry %s: %w", id, err)
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}
