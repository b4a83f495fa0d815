package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: goerrors.New("x"), want: "errors_errorstring"},
		{name: "unwraps to innermost", err: fmt.Errorf("write: %w", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}), want: "errors_errorstring"},
		{name: "path error", err: &fs.PathError{Op: "open", Path: "/x"}, want: "fs_patherror"},
		{name: "deadline", err: fmt.Errorf("notify: %w", context.DeadlineExceeded), want: "context_deadlineexceedederror"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
