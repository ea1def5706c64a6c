package tts

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"tts-synth/internal/config"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GoogleService синтезирует речь через Google Cloud Text-to-Speech.
// Держит gRPC соединение, поэтому реализует io.Closer.
type GoogleService struct {
	logger   *zap.Logger
	client   *gctts.Client
	voice    string
	language string
}

// NewGoogleService создает gRPC клиента Google TTS по Application Default Credentials.
// opts передаются клиенту как есть (endpoint, учетные данные).
func NewGoogleService(ctx context.Context, logger *zap.Logger, cfg config.GoogleConfig, voice string, opts ...option.ClientOption) (*GoogleService, error) {
	// Установим GOOGLE_APPLICATION_CREDENTIALS из конфига, если не задано в окружении
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" && cfg.CredentialsPath != "" {
		_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsPath)
	}

	language := cfg.Language
	if language == "" {
		language = voiceLanguage(voice)
	}
	if language == "" {
		return nil, fmt.Errorf("не удалось определить язык для голоса %q, задайте GOOGLE_TTS_LANGUAGE", voice)
	}

	client, err := gctts.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Google TTS: %w", err)
	}

	return &GoogleService{
		logger:   logger,
		client:   client,
		voice:    voice,
		language: language,
	}, nil
}

func (s *GoogleService) Name() string { return "google" }

// SynthesizeText выполняет запрос к Google TTS. LINEAR16 ответ уже содержит WAV заголовок.
func (s *GoogleService) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	cleanText := normalizeText(text)

	s.logger.Info("🎵 генерируем аудио через Google TTS",
		zap.String("voice", s.voice),
		zap.String("language", s.language),
		zap.Int("text_length", len(cleanText)))

	req := &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{InputSource: &ttspb.SynthesisInput_Text{Text: cleanText}},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: s.language,
			Name:         s.voice,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding: ttspb.AudioEncoding_LINEAR16,
		},
	}

	started := time.Now()
	resp, err := s.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к Google TTS: %w", err)
	}

	audioData := resp.GetAudioContent()
	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.Int("audio_size", len(audioData)),
		zap.Duration("took", time.Since(started)))

	return audioData, nil
}

// Close закрывает gRPC соединение
func (s *GoogleService) Close() error {
	return s.client.Close()
}

// voiceLanguage извлекает код языка из имени голоса: "en-US-Standard-C" -> "en-US"
func voiceLanguage(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "-" + parts[1]
}
