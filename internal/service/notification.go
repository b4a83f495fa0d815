package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/target/obd-dialer/internal/core"
	"github.com/target/obd-dialer/internal/domain/model"
)

const (
	defaultNotificationTimeout = 30 * time.Second
	// maxRejectedBody bounds how much of a non-200 response is kept for the alert.
	maxRejectedBody = 512
	// notificationAlertSubject names the notification endpoint in alerts.
	notificationAlertSubject = "targetFile notification request"
)

// NotificationDispatcherOptions configures the outbound notification.
type NotificationDispatcherOptions struct {
	URL     string        // Required
	Timeout time.Duration // Optional: defaults to 30s
	// BodyExpr reshapes the JSON body with a JMESPath expression when set.
	BodyExpr    string
	Client      *http.Client              // Optional
	Credentials *clientcredentials.Config // Optional: OAuth2 client credentials bearer token
	Alerter     core.Alerter              // Optional
	Logger      *slog.Logger              // Optional
}

// NotificationDispatcher announces a finalized target file to the provider. One attempt per
// file; the provider's at-least-once contract makes a later re-send safe but nothing here retries.
type NotificationDispatcher struct {
	url      string
	timeout  time.Duration
	bodyExpr string
	client   *http.Client
	alerter  core.Alerter
	logger   *slog.Logger
}

// NewNotificationDispatcher creates a new NotificationDispatcher.
func NewNotificationDispatcher(opts NotificationDispatcherOptions) (*NotificationDispatcher, error) {
	target := strings.TrimSpace(opts.URL)
	if target == "" {
		return nil, errNotificationNotEnabled
	}

	expr := strings.TrimSpace(opts.BodyExpr)
	if expr != "" {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("invalid notification body expression: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultNotificationTimeout
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	if opts.Credentials != nil {
		// The token fetch runs on the base client; the deadline comes from Dispatch's context.
		base := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = opts.Credentials.Client(base)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &NotificationDispatcher{
		url:      target,
		timeout:  timeout,
		bodyExpr: expr,
		client:   client,
		alerter:  opts.Alerter,
		logger:   logger.With("component", "notification_dispatcher"),
	}, nil
}

// URL returns the configured notification endpoint.
func (d *NotificationDispatcher) URL() string {
	return d.url
}

// Dispatch POSTs the notification once. A 200 is success. Any other status returns a
// NotificationRejected cycle error and a transport failure or timeout returns a
// NotificationTransportFailure one; both raise a critical alert.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, tfn model.TargetFileNotification) error {
	body, err := d.buildBody(tfn)
	if err != nil {
		return d.fail(ctx, &CycleError{Kind: KindNotificationTransportFailure, Err: err}, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return d.fail(ctx, &CycleError{Kind: KindNotificationTransportFailure, Err: err}, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	d.logger.InfoContext(ctx, "sending target file notification", "notification", tfn.String(), "url", d.url)

	resp, err := d.client.Do(req)
	if err != nil {
		return d.fail(ctx, &CycleError{Kind: KindNotificationTransportFailure, Err: err}, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxRejectedBody))
		rejected := &NotificationRejectedError{
			URL:        d.url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
		return d.fail(ctx, &CycleError{Kind: KindNotificationRejected, Err: rejected}, rejected.Error())
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	d.logger.InfoContext(ctx, "target file notification accepted", "file_name", tfn.FileName)
	return nil
}

func (d *NotificationDispatcher) buildBody(tfn model.TargetFileNotification) ([]byte, error) {
	body, err := json.Marshal(tfn)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	if d.bodyExpr == "" {
		return body, nil
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode notification: %w", err)
	}
	shaped, err := jmespath.Search(d.bodyExpr, data)
	if err != nil {
		return nil, fmt.Errorf("apply notification body expression: %w", err)
	}
	return json.Marshal(shaped)
}

func (d *NotificationDispatcher) fail(ctx context.Context, cerr *CycleError, message string) error {
	d.logger.ErrorContext(ctx, "target file notification failed", "kind", cerr.Kind, "error", cerr.Err)
	if d.alerter != nil {
		// The dispatch deadline may already be spent; the alert still has to land.
		alertCtx := context.WithoutCancel(ctx)
		if err := d.alerter.Raise(alertCtx, model.CreateAlertRequest{
			Subject:  notificationAlertSubject,
			Category: model.AlertCategoryTargetFile,
			Message:  message,
			Severity: model.AlertSeverityCritical,
		}); err != nil {
			d.logger.ErrorContext(ctx, "failed to raise notification alert", "error", err)
		}
	}
	return cerr
}

// IsNotificationNotConfigured reports whether err came from building a dispatcher without a URL.
func IsNotificationNotConfigured(err error) bool {
	return errors.Is(err, errNotificationNotEnabled)
}
