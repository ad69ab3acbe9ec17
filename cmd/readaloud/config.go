package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	reader "github.com/koscakluka/ema-reader/core"
	"github.com/koscakluka/ema-reader/core/frames"
)

const envPrefix = "READALOUD"

const (
	engineDryRun   = "dryrun"
	engineDeepgram = "deepgram"

	outputMiniaudio = "miniaudio"
	outputPortaudio = "portaudio"
)

var errNoSource = errors.New("one of --file or --url is required")

type config struct {
	File         string
	URL          string
	Engine       string
	Output       string
	HoverDelay   time.Duration
	FrameTimeout time.Duration
	WordDuration time.Duration
	// RemoteFrames maps iframe element ids to websocket urls of readers
	// running inside those frames.
	RemoteFrames map[string]string
	Plain        bool
	Start        string
}

func registerFlags(flags *pflag.FlagSet) {
	flags.String("file", "", "HTML file to read")
	flags.String("url", "", "page to load in a headless browser")
	flags.String("engine", engineDryRun, "speech engine: dryrun or deepgram")
	flags.String("output", outputMiniaudio, "audio output for deepgram: miniaudio or portaudio")
	flags.Duration("hover-delay", reader.DefaultHoverDelay, "how long the cursor rests before its text is spoken")
	flags.Duration("frame-timeout", frames.DefaultRequestTimeout, "how long to wait for a cross-origin frame's text")
	flags.Duration("word-duration", 300*time.Millisecond, "time per word for the dryrun engine")
	flags.StringToString("remote-frame", nil, "iframe id to websocket url of a reader serving that frame")
	flags.Bool("plain", false, "read the page once without the interactive view")
	flags.String("start", "", "element id to start reading from in plain mode")
}

// loadConfig resolves flags, falling back to READALOUD_* environment
// variables for anything not set on the command line.
func loadConfig(flags *pflag.FlagSet) (config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return config{}, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := config{
		File:         v.GetString("file"),
		URL:          v.GetString("url"),
		Engine:       strings.ToLower(strings.TrimSpace(v.GetString("engine"))),
		Output:       strings.ToLower(strings.TrimSpace(v.GetString("output"))),
		HoverDelay:   v.GetDuration("hover-delay"),
		FrameTimeout: v.GetDuration("frame-timeout"),
		WordDuration: v.GetDuration("word-duration"),
		RemoteFrames: v.GetStringMapString("remote-frame"),
		Plain:        v.GetBool("plain"),
		Start:        v.GetString("start"),
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	if (c.File == "") == (c.URL == "") {
		return errNoSource
	}
	switch c.Engine {
	case engineDryRun, engineDeepgram:
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	switch c.Output {
	case outputMiniaudio, outputPortaudio:
	default:
		return fmt.Errorf("unknown output %q", c.Output)
	}
	if c.HoverDelay <= 0 || c.FrameTimeout <= 0 {
		return errors.New("delays must be positive")
	}
	return nil
}
