package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
)

var pollyVoices = []string{"ivy", "joanna", "kendra", "kimberly", "salli", "joey", "justin", "matthew"}

// PollyAPI is the subset of the Polly client used by PollyProvider.
type PollyAPI interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyProvider synthesizes speech with Amazon Polly.
type PollyProvider struct {
	client PollyAPI
}

// NewPollyProvider builds a provider from the default AWS credential chain.
func NewPollyProvider(ctx context.Context, region string) (*PollyProvider, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewPollyProviderWithClient(polly.NewFromConfig(cfg)), nil
}

// NewPollyProviderWithClient wraps an existing Polly client.
func NewPollyProviderWithClient(client PollyAPI) *PollyProvider {
	return &PollyProvider{client: client}
}

func (p *PollyProvider) Name() string { return "polly" }

func (p *PollyProvider) Voices() []string { return append([]string(nil), pollyVoices...) }

func (p *PollyProvider) Supports(voice string) bool { return contains(pollyVoices, voice) }

// Synthesize drains the streamed MP3 response into memory.
func (p *PollyProvider) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: pollytypes.OutputFormatMp3,
		VoiceId:      pollytypes.VoiceId(pollyVoiceID(voice)),
	})
	if err != nil {
		return nil, fmt.Errorf("polly synthesize: %w", err)
	}
	if out.AudioStream == nil {
		return nil, errors.New("no audio stream returned from polly")
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("polly read stream: %w", err)
	}
	return audio, nil
}

func pollyVoiceID(voice string) string {
	if voice == "" {
		return voice
	}
	return strings.ToUpper(voice[:1]) + voice[1:]
}
