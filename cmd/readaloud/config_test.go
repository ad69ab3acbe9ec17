package main

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("readaloud", pflag.ContinueOnError)
	registerFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(parseFlags(t, "--file", "page.html"))
	if err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if cfg.Engine != engineDryRun {
		t.Fatalf("expected engine %q, got %q", engineDryRun, cfg.Engine)
	}
	if cfg.HoverDelay != 300*time.Millisecond {
		t.Fatalf("expected 300ms hover delay, got %v", cfg.HoverDelay)
	}
	if cfg.FrameTimeout != 2*time.Second {
		t.Fatalf("expected 2s frame timeout, got %v", cfg.FrameTimeout)
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("READALOUD_URL", "https://example.com")
	t.Setenv("READALOUD_HOVER_DELAY", "150ms")

	cfg, err := loadConfig(parseFlags(t))
	if err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if cfg.URL != "https://example.com" {
		t.Fatalf("expected url from environment, got %q", cfg.URL)
	}
	if cfg.HoverDelay != 150*time.Millisecond {
		t.Fatalf("expected 150ms hover delay, got %v", cfg.HoverDelay)
	}
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("READALOUD_ENGINE", "deepgram")

	cfg, err := loadConfig(parseFlags(t, "--file", "page.html", "--engine", "dryrun"))
	if err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	if cfg.Engine != engineDryRun {
		t.Fatalf("expected flag to win, got %q", cfg.Engine)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no source", args: nil},
		{name: "both sources", args: []string{"--file", "a.html", "--url", "https://example.com"}},
		{name: "unknown engine", args: []string{"--file", "a.html", "--engine", "espeak"}},
		{name: "unknown output", args: []string{"--file", "a.html", "--output", "alsa"}},
		{name: "zero delay", args: []string{"--file", "a.html", "--hover-delay", "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(parseFlags(t, tt.args...)); err == nil {
				t.Fatalf("expected config to be rejected")
			}
		})
	}

	if _, err := loadConfig(parseFlags(t)); !errors.Is(err, errNoSource) {
		t.Fatalf("expected %v, got %v", errNoSource, err)
	}
}
