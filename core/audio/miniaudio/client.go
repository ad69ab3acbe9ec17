// Package miniaudio plays speech through the default output device using
// miniaudio.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-reader/core/audio"
)

// Player owns the miniaudio context and its playback device.
type Player struct {
	// audioContext is only kept to be able to uninitialize it
	audioContext *malgo.AllocatedContext
	playbackClient
}

var _ audio.Player = (*Player)(nil)

func NewPlayer(encodingInfo audio.EncodingInfo) (*Player, error) {
	if encodingInfo.Format != audio.EncodingLinear16 {
		return nil, fmt.Errorf("unsupported playback format %q", encodingInfo.Format.Name())
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	player := Player{audioContext: audioCtx}
	if err := player.playbackClient.Init(audioCtx, encodingInfo); err != nil {
		player.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := player.playbackClient.Start(); err != nil {
		player.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	return &player, nil
}

func (p *Player) EncodingInfo() audio.EncodingInfo { return p.encodingInfo }

func (p *Player) Close() {
	_ = p.playbackClient.Uninit()
	_ = p.audioContext.Uninit()
	p.audioContext.Free()
}
