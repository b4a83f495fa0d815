//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Alert is an operational alarm raised by the export cycle or the callback path.
// Subject names the entity the alert is about (a directory, a file, the notification endpoint).
type Alert struct {
	ID        string        `json:"id"         db:"id"`
	Subject   string        `json:"subject"    db:"subject"`
	Category  AlertCategory `json:"category"   db:"category"`
	Message   string        `json:"message"    db:"message"`
	Severity  AlertSeverity `json:"severity"   db:"severity"`
	Status    AlertStatus   `json:"status"     db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// AlertCategory groups alerts by the component that raised them.
type AlertCategory string

const (
	AlertCategoryTargetFileDirectory AlertCategory = "targetFileDirectory"
	AlertCategoryTargetFile          AlertCategory = "targetFile"
	AlertCategoryTargetFileName      AlertCategory = "targetFileName"
	AlertCategoryArtifactMirror      AlertCategory = "artifactMirror"
)

// AlertSeverity represents the severity level of an alert.
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityHigh     AlertSeverity = "high"
	AlertSeverityMedium   AlertSeverity = "medium"
	AlertSeverityLow      AlertSeverity = "low"
	AlertSeverityInfo     AlertSeverity = "info"
)

// Valid returns true if the alert severity is valid.
func (s AlertSeverity) Valid() bool {
	switch s {
	case AlertSeverityCritical, AlertSeverityHigh, AlertSeverityMedium, AlertSeverityLow, AlertSeverityInfo:
		return true
	default:
		return false
	}
}

// String returns the string representation of the alert severity.
func (s AlertSeverity) String() string {
	return string(s)
}

// AlertStatus tracks operator acknowledgement of an alert.
type AlertStatus string

const (
	AlertStatusNew          AlertStatus = "new"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// CreateAlertRequest represents a request to persist a new alert.
type CreateAlertRequest struct {
	Subject  string        `json:"subject"`
	Category AlertCategory `json:"category"`
	Message  string        `json:"message"`
	Severity AlertSeverity `json:"severity"`
}

// Normalize trims request fields and applies the default severity.
func (r *CreateAlertRequest) Normalize() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Category = AlertCategory(strings.TrimSpace(string(r.Category)))
	r.Message = strings.TrimSpace(r.Message)
	r.Severity = AlertSeverity(strings.ToLower(strings.TrimSpace(string(r.Severity))))
	if r.Severity == "" {
		r.Severity = AlertSeverityCritical
	}
}

// Validate validates the CreateAlertRequest fields.
func (r *CreateAlertRequest) Validate() error {
	if r.Subject == "" {
		return errors.New("subject is required")
	}
	if utf8.RuneCountInString(r.Subject) > 1024 {
		return errors.New("subject must be 1024 characters or less")
	}
	if r.Category == "" {
		return errors.New("category is required")
	}
	if r.Message == "" {
		return errors.New("message is required")
	}
	if !r.Severity.Valid() {
		return errors.New("invalid severity")
	}
	return nil
}

// AlertListOptions bounds alert listings.
type AlertListOptions struct {
	Category *AlertCategory
	Limit    int
	Offset   int
}
