package audio

// Player plays mono speech audio on an output device.
type Player interface {
	EncodingInfo() EncodingInfo
	// SendAudio appends audio to the playback buffer.
	SendAudio(audio []byte) error
	// Mark calls callback with name once all audio sent before the mark has
	// been played.
	Mark(name string, callback func(string)) error
	// ClearBuffer drops buffered audio and pending marks without calling them.
	ClearBuffer()
}
