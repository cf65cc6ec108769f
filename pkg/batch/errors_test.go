package batch

import (
	"errors"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindMissingFile, "missing_file"},
		{KindDecode, "decode"},
		{KindInference, "inference"},
		{KindEncode, "encode"},
		{KindInvalidDetection, "invalid_detection"},
		{Kind(0), "unknown"},
		{Kind(99), "unknown"},
	}

	for _, test := range tests {
		if got := test.kind.String(); got != test.expected {
			t.Errorf("Kind(%d).String() = %s, expected %s", test.kind, got, test.expected)
		}
	}
}

func TestItemError(t *testing.T) {
	inner := errors.New("connection refused")
	err := &ItemError{Path: "/photos/a.jpg", Kind: KindInference, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Expected ItemError to unwrap to the inner error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "inference") {
		t.Errorf("Expected message to name the kind, got %q", msg)
	}
	if !strings.Contains(msg, "/photos/a.jpg") {
		t.Errorf("Expected message to name the path, got %q", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("Expected message to include the cause, got %q", msg)
	}
}
