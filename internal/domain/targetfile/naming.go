package targetfile

import (
	"fmt"
	"strings"
	"time"
)

const (
	fileNamePrefix = "OBD_"
	fileNameSuffix = ".csv"
	fileNameLayout = "20060102150405"
)

// FileName returns the target file name for a cycle started at now.
func FileName(now time.Time) string {
	return fileNamePrefix + now.Format(fileNameLayout) + fileNameSuffix
}

// ParseFileName extracts the timestamp from a target file name.
func ParseFileName(name string) (time.Time, error) {
	if !strings.HasPrefix(name, fileNamePrefix) || !strings.HasSuffix(name, fileNameSuffix) {
		return time.Time{}, fmt.Errorf("not a target file name: %q", name)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, fileNamePrefix), fileNameSuffix)
	t, err := time.Parse(fileNameLayout, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("not a target file name: %q: %w", name, err)
	}
	return t, nil
}
