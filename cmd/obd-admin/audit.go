package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/data"
	"github.com/target/obd-dialer/internal/domain/model"
)

const defaultListLimit = 20

type listAuditOptions struct {
	FileType string
	FileName string
	Limit    int
	Offset   int
	JSON     bool
}

func parseListAuditFlags(args []string) (listAuditOptions, error) {
	fs := flag.NewFlagSet("list-audit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listAuditOptions{}
	fs.StringVar(&opts.FileType, "type", "", "Filter by file type (TARGET_FILE or TARGET_FILE_STATUS)")
	fs.StringVar(&opts.FileName, "file", "", "Filter by exact file name")
	fs.IntVar(&opts.Limit, "limit", defaultListLimit, "Maximum rows to return")
	fs.IntVar(&opts.Offset, "offset", 0, "Rows to skip")
	fs.BoolVar(&opts.JSON, "json", false, "Print JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return listAuditOptions{}, err
	}
	if opts.Limit <= 0 {
		return listAuditOptions{}, errors.New("--limit must be greater than zero")
	}
	if opts.Offset < 0 {
		return listAuditOptions{}, errors.New("--offset must not be negative")
	}
	opts.FileType = strings.ToUpper(strings.TrimSpace(opts.FileType))
	if opts.FileType != "" && !model.FileType(opts.FileType).Valid() {
		return listAuditOptions{}, fmt.Errorf("unknown file type %q", opts.FileType)
	}
	opts.FileName = strings.TrimSpace(opts.FileName)
	return opts, nil
}

func (o listAuditOptions) toListOptions() *model.AuditListOptions {
	out := &model.AuditListOptions{Limit: o.Limit, Offset: o.Offset}
	if o.FileType != "" {
		ft := model.FileType(o.FileType)
		out.FileType = &ft
	}
	if o.FileName != "" {
		name := o.FileName
		out.FileName = &name
	}
	return out
}

func runListAudit(cmdCtx *commandContext, args []string) error {
	opts, err := parseListAuditFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	conns, err := connectInfra(ctx, cmdCtx, false)
	if err != nil {
		return err
	}
	defer cmdCtx.closeInfra(conns)

	rows, err := data.NewFileAuditRepo(conns.DB).List(ctx, opts.toListOptions())
	if err != nil {
		return fmt.Errorf("list audit records: %w", err)
	}
	if opts.JSON {
		return writeJSON(cmdCtx.Out, rows)
	}
	if len(rows) == 0 {
		return writeln(cmdCtx.Out, "(no audit records)")
	}
	return printAuditRows(cmdCtx.Out, rows)
}

type listAlertsOptions struct {
	Category string
	Limit    int
	JSON     bool
}

func parseListAlertsFlags(args []string) (listAlertsOptions, error) {
	fs := flag.NewFlagSet("list-alerts", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listAlertsOptions{}
	fs.StringVar(&opts.Category, "category", "", "Filter by category (targetFile, targetFileDirectory, targetFileName, artifactMirror)")
	fs.IntVar(&opts.Limit, "limit", defaultListLimit, "Maximum rows to return")
	fs.BoolVar(&opts.JSON, "json", false, "Print JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return listAlertsOptions{}, err
	}
	if opts.Limit <= 0 {
		return listAlertsOptions{}, errors.New("--limit must be greater than zero")
	}
	opts.Category = strings.TrimSpace(opts.Category)
	return opts, nil
}

func runListAlerts(cmdCtx *commandContext, args []string) error {
	opts, err := parseListAlertsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	conns, err := connectInfra(ctx, cmdCtx, false)
	if err != nil {
		return err
	}
	defer cmdCtx.closeInfra(conns)

	listOpts := &model.AlertListOptions{Limit: opts.Limit}
	if opts.Category != "" {
		cat := model.AlertCategory(opts.Category)
		listOpts.Category = &cat
	}
	alerts, err := data.NewAlertRepo(conns.DB).List(ctx, listOpts)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}
	if opts.JSON {
		return writeJSON(cmdCtx.Out, alerts)
	}
	if len(alerts) == 0 {
		return writeln(cmdCtx.Out, "(no alerts)")
	}
	return printAlerts(cmdCtx.Out, alerts)
}

func printAlerts(w io.Writer, alerts []*model.Alert) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "CREATED\tSEVERITY\tCATEGORY\tSUBJECT\tMESSAGE"); err != nil {
		return err
	}
	for _, a := range alerts {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.CreatedAt.Format(time.RFC3339), a.Severity, a.Category, a.Subject, a.Message); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runLastExport(cmdCtx *commandContext, _ []string) error {
	if !cmdCtx.Config.Redis.Enabled {
		return errors.New("redis is disabled (REDIS_ENABLED=false); the last export summary is not cached")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 30*time.Second)
	defer cancel()

	conns, err := connectInfra(ctx, cmdCtx, true)
	if err != nil {
		return err
	}
	defer cmdCtx.closeInfra(conns)

	svc, err := core.NewLastExportService(core.LastExportServiceOptions{
		Cache: data.NewRedisCacheRepo(conns.Redis),
		TTL:   cmdCtx.Config.Redis.LastExportTTL,
	})
	if err != nil {
		return err
	}
	last, err := svc.Get(ctx)
	if err != nil {
		return fmt.Errorf("read last export: %w", err)
	}
	if last == nil {
		return writeln(cmdCtx.Out, "(no export cached)")
	}
	return writeJSON(cmdCtx.Out, last)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
