package service

import (
	"errors"
	"fmt"
)

// CycleErrorKind classifies why an export cycle stopped.
type CycleErrorKind string

const (
	KindDirectoryUnavailable         CycleErrorKind = "directory_unavailable"
	KindDigestOrIOFailure            CycleErrorKind = "digest_or_io_failure"
	KindNotificationTransportFailure CycleErrorKind = "notification_transport_failure"
	KindNotificationRejected         CycleErrorKind = "notification_rejected"
	KindInvalidInboundOutcome        CycleErrorKind = "invalid_inbound_outcome"
)

// Sentinels matched by errors.Is against a *CycleError of the same kind.
var (
	ErrDirectoryUnavailable   = errors.New("target file directory unavailable")
	ErrDigestOrIOFailure      = errors.New("target file write failed")
	ErrNotificationTransport  = errors.New("target file notification transport failure")
	ErrNotificationRejected   = errors.New("target file notification rejected")
	ErrInvalidInboundOutcome  = errors.New("invalid processing outcome")
	errNotificationNotEnabled = errors.New("target file notification url not configured")
)

var kindSentinels = map[CycleErrorKind]error{
	KindDirectoryUnavailable:         ErrDirectoryUnavailable,
	KindDigestOrIOFailure:            ErrDigestOrIOFailure,
	KindNotificationTransportFailure: ErrNotificationTransport,
	KindNotificationRejected:         ErrNotificationRejected,
	KindInvalidInboundOutcome:        ErrInvalidInboundOutcome,
}

// CycleError is the typed failure of one cycle step. Path names the directory or file
// involved, when there is one.
type CycleError struct {
	Kind CycleErrorKind
	Path string
	Err  error
}

func (e *CycleError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *CycleError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// KindOf returns the cycle error kind carried by err, or "" when err is not a cycle error.
func KindOf(err error) CycleErrorKind {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// NotificationRejectedError carries the provider's non-200 answer.
type NotificationRejectedError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *NotificationRejectedError) Error() string {
	return fmt.Sprintf("Expecting HTTP 200 response from %s but received HTTP %d : %s", e.URL, e.StatusCode, e.Body)
}
