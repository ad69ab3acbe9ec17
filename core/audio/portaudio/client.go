// Package portaudio plays speech through the default output device using
// PortAudio blocking writes.
package portaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-reader/core/audio"
)

type Player struct {
	bufferSize   int
	stream       *portaudio.Stream
	encodingInfo audio.EncodingInfo

	mu            sync.Mutex
	leftoverAudio []byte
	out           []int16
}

var _ audio.Player = (*Player)(nil)

func NewPlayer(encodingInfo audio.EncodingInfo, bufferSize int) (*Player, error) {
	if encodingInfo.Format != audio.EncodingLinear16 {
		return nil, fmt.Errorf("unsupported playback format %q", encodingInfo.Format.Name())
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(encodingInfo.SampleRate), bufferSize, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Player{
		bufferSize:   bufferSize,
		stream:       stream,
		encodingInfo: encodingInfo,
		out:          out,
	}, nil
}

func (p *Player) EncodingInfo() audio.EncodingInfo { return p.encodingInfo }

func (p *Player) Close() {
	_ = p.stream.Stop()
	_ = p.stream.Close()
	_ = portaudio.Terminate()
}

// SendAudio writes every complete buffer and keeps the remainder for later.
func (p *Player) SendAudio(audio []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.leftoverAudio = append(p.leftoverAudio, audio...)
	return p.writeLocked(false)
}

func (p *Player) ClearBuffer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leftoverAudio = nil
}

// Mark flushes the remainder, padded with silence, and reports the mark
// once the blocking writes have returned.
func (p *Player) Mark(name string, callback func(string)) error {
	go func() {
		p.mu.Lock()
		err := p.writeLocked(true)
		p.mu.Unlock()
		if err != nil {
			return
		}
		callback(name)
	}()
	return nil
}

func (p *Player) writeLocked(pad bool) error {
	bufferBytes := p.bufferSize * 2
	if pad && len(p.leftoverAudio)%bufferBytes != 0 {
		padding := bufferBytes - len(p.leftoverAudio)%bufferBytes
		p.leftoverAudio = append(p.leftoverAudio, make([]byte, padding)...)
	}

	for len(p.leftoverAudio) >= bufferBytes {
		if err := binary.Read(bytes.NewReader(p.leftoverAudio[:bufferBytes]), binary.LittleEndian, p.out); err != nil {
			return fmt.Errorf("failed to decode audio buffer: %w", err)
		}
		if err := p.stream.Write(); err != nil {
			return fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
		p.leftoverAudio = p.leftoverAudio[bufferBytes:]
	}
	return nil
}
