//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPriority is the provider's default call priority.
const DefaultPriority = "0"

// CallJobRecord is one row of a target file.
type CallJobRecord struct {
	RequestID            string
	ServiceID            string
	MSISDN               string
	CLI                  string
	Priority             string
	CallFlowURL          string
	ContentFileName      string
	WeekID               int
	LanguageLocationCode string
	Circle               string
	SubscriptionMode     SubscriptionMode
}

// RequestID builds the composite request identifier correlating a row to its source record.
func RequestID(exportID, sourceID string) string {
	return fmt.Sprintf("%s-%s", exportID, sourceID)
}

// TargetFileNotification is the payload announcing a finalized target file to the provider.
type TargetFileNotification struct {
	FileName    string `json:"fileName"`
	Checksum    string `json:"checksum"`
	RecordCount int    `json:"recordCount"`
}

func (t TargetFileNotification) String() string {
	return fmt.Sprintf("TargetFileNotification{fileName=%s, checksum=%s, recordCount=%d}",
		t.FileName, t.Checksum, t.RecordCount)
}

// ExportResult is the terminal state of one successful export build.
type ExportResult struct {
	ExportID     string                 `json:"export_id"`
	Notification TargetFileNotification `json:"notification"`
	Path         string                 `json:"path"`
	FreshCount   int                    `json:"fresh_count"`
	RetryCount   int                    `json:"retry_count"`
	CompletedAt  time.Time              `json:"completed_at"`
}

// FileProcessedStatus is the provider's verdict on a delivered target file.
type FileProcessedStatus string

const (
	FileProcessedSuccess FileProcessedStatus = "SUCCESS"
	FileProcessedFailure FileProcessedStatus = "FAILURE"
)

// IsSuccess reports whether the provider consumed the file.
func (s FileProcessedStatus) IsSuccess() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(FileProcessedSuccess))
}

// FileProcessedStatusRequest is the body of the provider's processing-outcome callback.
type FileProcessedStatusRequest struct {
	FileName        string              `json:"fileName"        validate:"required,max=255"`
	ProcessedStatus FileProcessedStatus `json:"processedStatus" validate:"required"`
}

func (r FileProcessedStatusRequest) String() string {
	return fmt.Sprintf("FileProcessedStatusRequest{fileName=%s, processedStatus=%s}", r.FileName, r.ProcessedStatus)
}

// LastExport summarises the most recent successful export for operators.
type LastExport struct {
	ExportID     string    `json:"export_id"`
	FileName     string    `json:"file_name"`
	Checksum     string    `json:"checksum"`
	RecordCount  int       `json:"record_count"`
	Notified     bool      `json:"notified"`
	NotifyError  string    `json:"notify_error,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
	ArtifactURI  string    `json:"artifact_uri,omitempty"`
	DigestMethod string    `json:"digest_method"`
}

// CycleState is the export cycle's position in its state machine.
type CycleState string

const (
	CycleStateIdle           CycleState = "idle"
	CycleStateDirectoryReady CycleState = "directory_ready"
	CycleStateWriting        CycleState = "writing"
	CycleStateFinalized      CycleState = "finalized"
	CycleStateNotifySent     CycleState = "notify_sent"
	CycleStateNotifyFailed   CycleState = "notify_failed"
	CycleStateFailed         CycleState = "failed"
)

var cycleTransitions = map[CycleState][]CycleState{
	CycleStateIdle:           {CycleStateDirectoryReady, CycleStateFailed},
	CycleStateDirectoryReady: {CycleStateWriting, CycleStateFailed},
	CycleStateWriting:        {CycleStateFinalized, CycleStateFailed},
	CycleStateFinalized:      {CycleStateNotifySent, CycleStateNotifyFailed, CycleStateIdle},
	CycleStateNotifySent:     {CycleStateIdle},
	CycleStateNotifyFailed:   {CycleStateIdle},
	CycleStateFailed:         {CycleStateIdle},
}

// CanTransitionTo reports whether moving from s to next is a legal edge.
func (s CycleState) CanTransitionTo(next CycleState) bool {
	for _, allowed := range cycleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s ends a cycle.
func (s CycleState) IsTerminal() bool {
	switch s {
	case CycleStateNotifySent, CycleStateNotifyFailed, CycleStateFailed:
		return true
	default:
		return false
	}
}
