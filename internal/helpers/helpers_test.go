package helpers

import (
	"strings"
	"testing"
)

func TestBytesToSize(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{name: "zero", input: 0, expected: "0 B"},
		{name: "bytes", input: 512, expected: "512 B"},
		{name: "kilobytes", input: 1536, expected: "1.5 KB"},
		{name: "megabytes", input: 5 * 1024 * 1024, expected: "5.0 MB"},
		{name: "gigabytes", input: 3 * 1024 * 1024 * 1024, expected: "3.0 GB"},
		{name: "negative clamps to zero", input: -10, expected: "0 B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BytesToSize(tt.input); got != tt.expected {
				t.Errorf("BytesToSize(%d) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDurationString(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{-5, "0:00"},
	}
	for _, tt := range tests {
		if got := DurationString(tt.input); got != tt.expected {
			t.Errorf("DurationString(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSpeedString(t *testing.T) {
	if got := SpeedString(0); got != "--" {
		t.Errorf("SpeedString(0) = %q, want --", got)
	}
	if got := SpeedString(2 * 1024 * 1024); got != "2.0 MB/s" {
		t.Errorf("SpeedString = %q, want 2.0 MB/s", got)
	}
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(50, 10)
	if len(bar) != 12 {
		t.Fatalf("ProgressBar length = %d, want 12", len(bar))
	}
	if !strings.HasPrefix(bar, "[=====") {
		t.Errorf("ProgressBar(50, 10) = %q, want five filled cells", bar)
	}
	if full := ProgressBar(100, 10); strings.Contains(full, " ") {
		t.Errorf("ProgressBar(100, 10) = %q, want no empty cells", full)
	}
}
