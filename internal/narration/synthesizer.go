package narration

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ErrEmptyScript is returned when nothing speakable is left after sanitization.
var ErrEmptyScript = errors.New("narration script is empty")

// SpeechClient renders text to an audio file. Speech backends stream to a sink,
// so the contract is file-based and the caller reads the bytes afterwards.
type SpeechClient interface {
	RenderToFile(ctx context.Context, path, text, voice, format string) error
}

// Synthesizer produces narration audio for a draft.
type Synthesizer struct {
	client  SpeechClient
	voice   string
	format  string
	tempDir string
	log     *zap.Logger
}

// NewSynthesizer creates a synthesizer with a fixed voice and output format.
func NewSynthesizer(client SpeechClient, voice, format, tempDir string, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{client: client, voice: voice, format: format, tempDir: tempDir, log: log}
}

// Synthesize returns MP3 bytes for the title and content.
// Exactly one temporary file is created and it is removed before returning.
func (s *Synthesizer) Synthesize(ctx context.Context, title, content string) ([]byte, error) {
	text := Script(title, content)
	if text == "" || text == "." {
		return nil, ErrEmptyScript
	}

	if s.tempDir != "" {
		if err := os.MkdirAll(s.tempDir, 0o750); err != nil {
			return nil, fmt.Errorf("create temp audio dir: %w", err)
		}
	}
	f, err := os.CreateTemp(s.tempDir, "narration-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create temp audio file: %w", err)
	}
	path := f.Name()
	_ = f.Close()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn("remove temp audio file failed", zap.String("path", path), zap.Error(err))
		}
	}()

	if err := s.client.RenderToFile(ctx, path, text, s.voice, s.format); err != nil {
		return nil, fmt.Errorf("render speech: %w", err)
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read speech file: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("speech backend produced an empty file")
	}
	s.log.Debug("narration synthesized", zap.Int("chars", len([]rune(text))), zap.Int("bytes", len(audio)))
	return audio, nil
}
