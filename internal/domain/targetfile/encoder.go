// Package targetfile holds the on-disk format of the OBD target file: its name,
// its fixed eleven-field rows, and the digest computed while it is written.
package targetfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/target/obd-dialer/internal/domain/model"
)

const (
	fieldDelimiter = ","
	rowTerminator  = "\n"
	// FieldCount is the number of fields on every row.
	FieldCount = 11
)

// ErrInvalidField is returned when a field value would break the row format.
var ErrInvalidField = errors.New("field contains a delimiter or line break")

// EncodeRow renders rec as a single newline-terminated row. Fields are written in
// provider order: request id, service id, msisdn, cli, priority, call flow url,
// content file name, week id, language location code, circle, subscription mode.
func EncodeRow(rec model.CallJobRecord) (string, error) {
	fields := [FieldCount]struct {
		name  string
		value string
	}{
		{"requestId", rec.RequestID},
		{"serviceId", rec.ServiceID},
		{"msisdn", rec.MSISDN},
		{"cli", rec.CLI},
		{"priority", rec.Priority},
		{"callFlowUrl", rec.CallFlowURL},
		{"contentFileName", rec.ContentFileName},
		{"weekId", strconv.Itoa(rec.WeekID)},
		{"languageLocationCode", rec.LanguageLocationCode},
		{"circle", rec.Circle},
		{"subscriptionMode", string(rec.SubscriptionMode)},
	}

	var b strings.Builder
	for i, f := range fields {
		if strings.ContainsAny(f.value, ",\r\n") {
			return "", fmt.Errorf("%s %q: %w", f.name, f.value, ErrInvalidField)
		}
		if i > 0 {
			b.WriteString(fieldDelimiter)
		}
		b.WriteString(f.value)
	}
	b.WriteString(rowTerminator)
	return b.String(), nil
}

// SplitRow is the inverse of EncodeRow for a single row without its terminator.
func SplitRow(line string) ([]string, error) {
	line = strings.TrimSuffix(line, rowTerminator)
	parts := strings.Split(line, fieldDelimiter)
	if len(parts) != FieldCount {
		return nil, fmt.Errorf("expected %d fields, got %d", FieldCount, len(parts))
	}
	return parts, nil
}
