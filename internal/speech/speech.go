// Package speech turns a report's final sentiment text into spoken audio:
// translate to the target language, then synthesize an MP3.
package speech

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Translator translates text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Synthesizer renders text as speech. It returns the audio file path and the
// temporary directory holding it; the caller owns the directory and must
// remove it when done.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (audioPath, tempDir string, err error)
}

// Service is the translate-then-speak composition used by the TTS endpoint.
type Service struct {
	translator Translator
	synth      Synthesizer
	targetLang string
	log        *logrus.Logger
}

// NewService creates a speech service.
func NewService(translator Translator, synth Synthesizer, targetLang string, log *logrus.Logger) *Service {
	if targetLang == "" {
		targetLang = "hi"
	}
	return &Service{
		translator: translator,
		synth:      synth,
		targetLang: targetLang,
		log:        log,
	}
}

// Narrate translates the text and synthesizes audio from it. A translation
// failure falls back to speaking the original text rather than failing the
// request.
func (s *Service) Narrate(ctx context.Context, text string) (audioPath, tempDir string, err error) {
	translated, err := s.translator.Translate(ctx, text, s.targetLang)
	if err != nil {
		s.log.WithError(err).Warn("translation failed, narrating original text")
		translated = text
	}
	return s.synth.Synthesize(ctx, translated, s.targetLang)
}
