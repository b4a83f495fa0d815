package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/obd-dialer/internal/adapters/scheduler"
	"github.com/target/obd-dialer/internal/bootstrap"
	"github.com/target/obd-dialer/internal/data"
	"github.com/target/obd-dialer/internal/domain/model"
	"github.com/target/obd-dialer/internal/domain/targetfile"
)

const defaultGenerateTimeout = time.Hour

type generateOptions struct {
	Timeout time.Duration
}

func parseGenerateFlags(args []string) (generateOptions, error) {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := generateOptions{Timeout: defaultGenerateTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultGenerateTimeout, "Maximum duration for the export cycle")

	if err := fs.Parse(args); err != nil {
		return generateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return generateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

// runGenerate runs one cycle through the scheduler guard so a concurrent scheduled
// fire (in this or another replica) is never duplicated.
func runGenerate(cmdCtx *commandContext, args []string) error {
	opts, err := parseGenerateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	conns, err := connectInfra(ctx, cmdCtx, true)
	if err != nil {
		return err
	}
	defer cmdCtx.closeInfra(conns)

	svcs, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cmdCtx.Config,
		DB:          conns.DB,
		RedisClient: conns.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	started := time.Now().UTC()
	if runErr := svcs.Scheduler.RunNow(ctx); runErr != nil {
		if errors.Is(runErr, scheduler.ErrCycleLockHeld) {
			return errors.New("another replica is running an export cycle; try again later")
		}
		return runErr
	}

	fileType := model.FileTypeTargetFile
	rows, err := svcs.Audits.List(ctx, &model.AuditListOptions{FileType: &fileType, Limit: 1})
	if err != nil {
		return fmt.Errorf("read audit ledger: %w", err)
	}
	if len(rows) == 0 || rows[0].CreatedAt.Before(started.Add(-time.Second)) {
		return errors.New("export cycle finished without an audit row; check the service logs")
	}
	if err := printAuditRows(cmdCtx.Out, rows); err != nil {
		return err
	}
	if rows[0].ExportID == nil {
		return fmt.Errorf("export cycle failed: %s", rows[0].Status)
	}
	return nil
}

type verifyOptions struct {
	Path    string
	Algo    targetfile.DigestAlgorithm
	NoAudit bool
}

func parseVerifyFlags(args []string, defaultAlgo targetfile.DigestAlgorithm) (verifyOptions, error) {
	fs := flag.NewFlagSet("verify-file", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	if defaultAlgo == "" {
		defaultAlgo = targetfile.DigestMD5
	}
	var algo string
	opts := verifyOptions{}
	fs.StringVar(&algo, "algo", string(defaultAlgo), "Digest algorithm (md5, sha256, xxhash)")
	fs.BoolVar(&opts.NoAudit, "no-audit", false, "Only print the checksum; skip the ledger comparison")

	if err := fs.Parse(args); err != nil {
		return verifyOptions{}, err
	}
	if fs.NArg() != 1 {
		return verifyOptions{}, errors.New("usage: verify-file [flags] <path>")
	}
	opts.Path = fs.Arg(0)
	if err := opts.Algo.UnmarshalText([]byte(algo)); err != nil {
		return verifyOptions{}, err
	}
	return opts, nil
}

type verifyResult int

const (
	verifyNoRecord verifyResult = iota
	verifyMatch
	verifyMismatch
)

func (r verifyResult) String() string {
	switch r {
	case verifyMatch:
		return "MATCH"
	case verifyMismatch:
		return "MISMATCH"
	default:
		return "NO AUDIT RECORD"
	}
}

// compareChecksum checks digest against the newest ledger row that carries a checksum.
func compareChecksum(digest string, rows []*model.AuditRecord) (verifyResult, *model.AuditRecord) {
	for _, row := range rows {
		if row == nil || row.Checksum == nil {
			continue
		}
		if strings.EqualFold(*row.Checksum, digest) {
			return verifyMatch, row
		}
		return verifyMismatch, row
	}
	return verifyNoRecord, nil
}

func runVerifyFile(cmdCtx *commandContext, args []string) error {
	opts, err := parseVerifyFlags(args, cmdCtx.Config.TargetFile.DigestAlgorithm)
	if err != nil {
		return err
	}

	name := filepath.Base(opts.Path)
	if _, parseErr := targetfile.ParseFileName(name); parseErr != nil {
		cmdCtx.Logger.Warn("file name does not follow the target file pattern", "file", name)
	}

	digest, err := targetfile.FileDigest(opts.Path, opts.Algo)
	if err != nil {
		return fmt.Errorf("digest %s: %w", opts.Path, err)
	}
	if err := writef(cmdCtx.Out, "%s  %s (%s)\n", digest, name, opts.Algo); err != nil {
		return err
	}
	if opts.NoAudit {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	conns, err := connectInfra(ctx, cmdCtx, false)
	if err != nil {
		return err
	}
	defer cmdCtx.closeInfra(conns)

	fileType := model.FileTypeTargetFile
	rows, err := data.NewFileAuditRepo(conns.DB).List(ctx, &model.AuditListOptions{
		FileType: &fileType,
		FileName: &name,
		Limit:    10,
	})
	if err != nil {
		return fmt.Errorf("read audit ledger: %w", err)
	}

	result, row := compareChecksum(digest, rows)
	if err := printVerifyResult(cmdCtx.Out, result, row); err != nil {
		return err
	}
	if result == verifyMismatch {
		return fmt.Errorf("checksum mismatch for %s", name)
	}
	return nil
}

func printVerifyResult(w io.Writer, result verifyResult, row *model.AuditRecord) error {
	if row == nil {
		return writeln(w, result.String())
	}
	exportID := "-"
	if row.ExportID != nil {
		exportID = *row.ExportID
	}
	return writef(w, "%s (ledger checksum %s, export %s, recorded %s)\n",
		result, *row.Checksum, exportID, row.CreatedAt.Format(time.RFC3339))
}

func printAuditRows(w io.Writer, rows []*model.AuditRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "CREATED\tTYPE\tFILE\tSTATUS\tRECORDS\tCHECKSUM\tEXPORT"); err != nil {
		return err
	}
	for _, r := range rows {
		records, checksum, exportID := "-", "-", "-"
		if r.RecordCount != nil {
			records = fmt.Sprint(*r.RecordCount)
		}
		if r.Checksum != nil {
			checksum = *r.Checksum
		}
		if r.ExportID != nil {
			exportID = *r.ExportID
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format(time.RFC3339), r.FileType, r.FileName, r.Status, records, checksum, exportID); err != nil {
			return err
		}
	}
	return tw.Flush()
}
