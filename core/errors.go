package reader

import "errors"

var (
	ErrSpeechUnsupported = errors.New("speech synthesis not supported")
	ErrNoTextFound       = errors.New("no text found")
	ErrNotAttached       = errors.New("reader not attached")
	ErrNoTarget          = errors.New("no element under pointer")
	ErrSuperseded        = errors.New("long read superseded")
	ErrReadFailed        = errors.New("long read failed")
)
