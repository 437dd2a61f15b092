// Package speech turns text into MP3 audio through the first provider offering the voice.
package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"readify-backend/internal/shared/metrics"
)

// DefaultVoice is used when the caller does not pick one.
const DefaultVoice = "alloy"

const audioMimeType = "audio/mpeg"

// Provider synthesizes speech for the voices it offers.
type Provider interface {
	Name() string
	Voices() []string
	Supports(voice string) bool
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// VoiceGroup lists the voices offered by one provider.
type VoiceGroup struct {
	Provider string   `json:"provider"`
	Voices   []string `json:"voices"`
}

// Dispatcher routes synthesis requests to providers in priority order.
type Dispatcher struct {
	providers []Provider
	log       *zap.Logger
}

// NewDispatcher builds a dispatcher. Earlier providers win when voices overlap.
func NewDispatcher(log *zap.Logger, providers ...Provider) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{providers: providers, log: log}
}

// Resolve returns the first provider claiming voice. Matching ignores case and surrounding
// space; an UnsupportedVoiceError carries voice exactly as given.
func (d *Dispatcher) Resolve(voice string) (Provider, error) {
	normalized := normalizeVoice(voice)
	for _, p := range d.providers {
		if p.Supports(normalized) {
			return p, nil
		}
	}
	return nil, &UnsupportedVoiceError{Voice: voice}
}

// Voices lists every available voice grouped by provider.
func (d *Dispatcher) Voices() []VoiceGroup {
	groups := make([]VoiceGroup, 0, len(d.providers))
	for _, p := range d.providers {
		groups = append(groups, VoiceGroup{Provider: p.Name(), Voices: p.Voices()})
	}
	return groups
}

// Synthesize renders text with voice and returns an MP3 data URI.
func (d *Dispatcher) Synthesize(ctx context.Context, text, voice string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	provider, err := d.Resolve(voice)
	if err != nil {
		return "", err
	}
	voice = normalizeVoice(voice)

	start := time.Now()
	audio, err := provider.Synthesize(ctx, text, voice)
	if err == nil && len(audio) == 0 {
		err = errors.New("provider returned no audio")
	}
	metrics.ObserveSynthesis(provider.Name(), start, err)
	if err != nil {
		d.log.Warn("speech.synthesis_failed",
			zap.String("provider", provider.Name()),
			zap.String("voice", voice),
			zap.Error(err),
		)
		return "", &SynthesisError{Provider: provider.Name(), Err: err}
	}

	d.log.Info("speech.synthesized",
		zap.String("provider", provider.Name()),
		zap.String("voice", voice),
		zap.Int("bytes", len(audio)),
		zap.Duration("latency", time.Since(start)),
	)
	return DataURI(audioMimeType, audio), nil
}

// DataURI encodes data as data:<mime>;base64,<payload>.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func normalizeVoice(voice string) string {
	voice = strings.ToLower(strings.TrimSpace(voice))
	if voice == "" {
		return DefaultVoice
	}
	return voice
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
