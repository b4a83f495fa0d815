//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// FileType classifies audit ledger rows.
type FileType string

const (
	// FileTypeTargetFile records one export attempt.
	FileTypeTargetFile FileType = "TARGET_FILE"
	// FileTypeTargetFileStatus records one processing outcome reported by the provider.
	FileTypeTargetFileStatus FileType = "TARGET_FILE_STATUS"
)

// Valid reports whether t is a known file type.
func (t FileType) Valid() bool {
	return t == FileTypeTargetFile || t == FileTypeTargetFileStatus
}

// AuditStatusSuccess is the status text recorded for a successful export.
const AuditStatusSuccess = "Success"

// AuditRecord is one immutable row in the file audit ledger.
// ExportID is nil when the attempt failed before the export took effect.
type AuditRecord struct {
	ID          string    `json:"id"                     db:"id"`
	ExportID    *string   `json:"export_id,omitempty"    db:"export_id"`
	FileType    FileType  `json:"file_type"              db:"file_type"`
	FileName    string    `json:"file_name"              db:"file_name"`
	Status      string    `json:"status"                 db:"status"`
	RecordCount *int      `json:"record_count,omitempty" db:"record_count"`
	Checksum    *string   `json:"checksum,omitempty"     db:"checksum"`
	CreatedAt   time.Time `json:"created_at"             db:"created_at"`
}

// CreateAuditRecordRequest represents a request to append an audit row.
type CreateAuditRecordRequest struct {
	ExportID    *string  `json:"export_id,omitempty"`
	FileType    FileType `json:"file_type"`
	FileName    string   `json:"file_name"`
	Status      string   `json:"status"`
	RecordCount *int     `json:"record_count,omitempty"`
	Checksum    *string  `json:"checksum,omitempty"`
}

// Normalize trims request fields; empty optional strings become nil.
func (r *CreateAuditRecordRequest) Normalize() {
	r.FileName = strings.TrimSpace(r.FileName)
	r.Status = strings.TrimSpace(r.Status)
	if r.ExportID != nil && strings.TrimSpace(*r.ExportID) == "" {
		r.ExportID = nil
	}
	if r.Checksum != nil {
		v := strings.ToLower(strings.TrimSpace(*r.Checksum))
		if v == "" {
			r.Checksum = nil
		} else {
			r.Checksum = &v
		}
	}
}

// Validate validates the CreateAuditRecordRequest fields.
func (r *CreateAuditRecordRequest) Validate() error {
	if !r.FileType.Valid() {
		return errors.New("invalid file_type")
	}
	if r.Status == "" {
		return errors.New("status is required")
	}
	if r.RecordCount != nil && *r.RecordCount < 0 {
		return errors.New("record_count must be non-negative")
	}
	if r.Checksum != nil {
		for _, char := range *r.Checksum {
			if !isLowerHexRune(char) {
				return errors.New("checksum must contain only hexadecimal characters")
			}
		}
	}
	return nil
}

func isLowerHexRune(char rune) bool {
	return ('0' <= char && char <= '9') || ('a' <= char && char <= 'f')
}

// AuditListOptions represents options for listing audit records, newest first.
type AuditListOptions struct {
	FileType *FileType `json:"file_type,omitempty"`
	FileName *string   `json:"file_name,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}
