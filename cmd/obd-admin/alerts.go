package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/target/obd-dialer/internal/bootstrap"
	"github.com/target/obd-dialer/internal/domain/model"
)

const (
	defaultFireAlertTimeout = 20 * time.Second
	defaultAlertSubject     = "obd-admin"
	defaultAlertMessage     = "Manual alert to verify alert persistence and sink delivery."
)

type fireAlertOptions struct {
	Subject  string
	Category string
	Message  string
	Severity string
	Timeout  time.Duration
}

func parseFireAlertFlags(args []string) (fireAlertOptions, error) {
	fs := flag.NewFlagSet("fire-alert", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := fireAlertOptions{}
	fs.StringVar(&opts.Subject, "subject", defaultAlertSubject, "Alert subject")
	fs.StringVar(&opts.Category, "category", string(model.AlertCategoryTargetFile), "Alert category")
	fs.StringVar(&opts.Message, "message", defaultAlertMessage, "Alert message")
	fs.StringVar(&opts.Severity, "severity", string(model.AlertSeverityLow), "Alert severity (critical, high, medium, low, info)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultFireAlertTimeout, "Maximum duration for persistence and delivery")

	if err := fs.Parse(args); err != nil {
		return fireAlertOptions{}, err
	}
	if opts.Timeout <= 0 {
		return fireAlertOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func (o fireAlertOptions) request() model.CreateAlertRequest {
	return model.CreateAlertRequest{
		Subject:  strings.TrimSpace(o.Subject),
		Category: model.AlertCategory(strings.TrimSpace(o.Category)),
		Message:  strings.TrimSpace(o.Message),
		Severity: model.AlertSeverity(strings.TrimSpace(o.Severity)),
	}
}

func runFireAlert(cmdCtx *commandContext, args []string) error {
	opts, err := parseFireAlertFlags(args)
	if err != nil {
		return err
	}

	req := opts.request()
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	conns, err := connectInfra(ctx, cmdCtx, false)
	if err != nil {
		return err
	}
	defer cmdCtx.closeInfra(conns)

	alerts, err := bootstrap.BuildAlertService(&cmdCtx.Config, conns.DB, cmdCtx.Logger)
	if err != nil {
		return err
	}
	if err := alerts.Raise(ctx, req); err != nil {
		return err
	}

	return writef(cmdCtx.Out, "alert raised: subject=%q category=%s severity=%s\n", req.Subject, req.Category, req.Severity)
}
