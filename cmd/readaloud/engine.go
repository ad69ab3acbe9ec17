package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/koscakluka/ema-reader/core/audio"
	"github.com/koscakluka/ema-reader/core/audio/miniaudio"
	"github.com/koscakluka/ema-reader/core/audio/portaudio"
	"github.com/koscakluka/ema-reader/core/speech"
	"github.com/koscakluka/ema-reader/core/speech/deepgram"
	"github.com/koscakluka/ema-reader/core/speech/dryrun"
)

const portaudioBufferSize = 1024

// newEngine builds the configured speech engine. The returned close function
// releases audio devices.
func newEngine(cfg config, out io.Writer) (speech.Engine, func(), error) {
	if cfg.Engine == engineDryRun {
		return dryrun.NewEngine(dryrun.WithWordDuration(cfg.WordDuration), dryrun.WithOutput(out)), func() {}, nil
	}

	player, closePlayer, err := newPlayer(cfg.Output)
	if err != nil {
		return nil, nil, err
	}
	engine, err := deepgram.NewEngine(player)
	if err != nil {
		closePlayer()
		return nil, nil, fmt.Errorf("failed to create deepgram engine: %w", err)
	}
	return engine, closePlayer, nil
}

type closablePlayer interface {
	audio.Player
	Close()
}

func newPlayer(output string) (audio.Player, func(), error) {
	var player closablePlayer
	var err error
	switch output {
	case outputMiniaudio:
		player, err = miniaudio.NewPlayer(audio.DefaultEncodingInfo())
	case outputPortaudio:
		player, err = portaudio.NewPlayer(audio.DefaultEncodingInfo(), portaudioBufferSize)
	default:
		err = errors.New("unknown audio output")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s output: %w", output, err)
	}
	return player, player.Close, nil
}
