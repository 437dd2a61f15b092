package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVoice matches every UnsupportedVoiceError.
	ErrUnsupportedVoice = errors.New("unsupported voice")
	// ErrSynthesisFailed matches every SynthesisError.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrEmptyText is returned when there is nothing to narrate.
	ErrEmptyText = errors.New("speech: text is empty")
)

// UnsupportedVoiceError names a voice that no configured provider offers.
type UnsupportedVoiceError struct {
	Voice string
}

func (e *UnsupportedVoiceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedVoice, e.Voice)
}

func (e *UnsupportedVoiceError) Is(target error) bool { return target == ErrUnsupportedVoice }

// SynthesisError reports a provider failure, including timeouts and empty audio.
type SynthesisError struct {
	Provider string
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrSynthesisFailed, e.Provider, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

func (e *SynthesisError) Is(target error) bool { return target == ErrSynthesisFailed }
