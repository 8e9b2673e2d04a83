package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/series"
)

func TestRun(t *testing.T) {
	t.Parallel()
	var stdout bytes.Buffer
	if err := run([]string{"-n", "50", "-period", "10", "-noise", "0.1", "-seed", "3"}, &stdout); err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	data, err := series.Read(&stdout)
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	if len(data) != 50 {
		t.Errorf("samples got: %d, expected: %d", len(data), 50)
	}

	out := filepath.Join(t.TempDir(), "series.txt")
	if err := run([]string{"-n", "7", "-o", out}, &stdout); err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	loaded, err := series.Load(context.Background(), out)
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	if len(loaded) != 7 {
		t.Errorf("samples got: %d, expected: %d", len(loaded), 7)
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		args     []string
		expected error
	}{
		{name: "unknown_flag", args: []string{"-nope"}, expected: errkind.ErrArgument},
		{name: "bad_period", args: []string{"-period", "0"}, expected: errkind.ErrArgument},
		{name: "bad_output", args: []string{"-n", "1", "-o", filepath.Join("missing", "dir", "x.txt")}, expected: errkind.ErrIO},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var stdout bytes.Buffer
			if err := run(tc.args, &stdout); !errors.Is(err, tc.expected) {
				t.Errorf("error got: %v, expected: %v", err, tc.expected)
			}
		})
	}
}
