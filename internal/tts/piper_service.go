package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"tts-synth/internal/audio"

	"go.uber.org/zap"
)

// PiperService синтезирует речь через HTTP API Piper
type PiperService struct {
	api        *apiClient
	logger     *zap.Logger
	voice      string
	sampleRate int // для ответов в виде сырого PCM
}

// NewPiperService создает новый Piper TTS сервис
func NewPiperService(logger *zap.Logger, baseURL, voice string, sampleRate int) *PiperService {
	return &PiperService{
		api:        newAPIClient(baseURL, logger),
		logger:     logger,
		voice:      voice,
		sampleRate: sampleRate,
	}
}

func (s *PiperService) Name() string { return "piper" }

// Init проверяет адрес API и его доступность. Любой HTTP ответ считается успехом.
func (s *PiperService) Init(ctx context.Context) error {
	if err := s.api.validate(); err != nil {
		return err
	}

	_, err := s.api.get(ctx, "/")
	var statusErr *StatusError
	if err != nil && !errors.As(err, &statusErr) {
		return fmt.Errorf("piper tts недоступен: %w", err)
	}

	s.logger.Debug("piper tts доступен", zap.String("url", s.api.baseURL))
	return nil
}

// SynthesizeText отправляет текст в /synthesize-raw и возвращает WAV
func (s *PiperService) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	cleanText := normalizeText(text)

	s.logger.Info("🎵 генерируем аудио через Piper TTS",
		zap.String("voice", s.voice),
		zap.Int("text_length", len(cleanText)))

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	_ = form.WriteField("text", cleanText)
	if s.voice != "" {
		_ = form.WriteField("voice", s.voice)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}

	audioData, err := s.api.post(ctx, "/synthesize-raw", form.FormDataContentType(), body)
	if err != nil {
		return nil, fmt.Errorf("piper tts: %w", err)
	}
	if len(audioData) == 0 {
		return nil, errors.New("piper tts вернул пустой ответ")
	}

	// Piper может вернуть сырой PCM без заголовка
	if !audio.HasRIFFHeader(audioData) {
		s.logger.Debug("piper вернул сырой PCM, упаковываем в WAV",
			zap.Int("sample_rate", s.sampleRate))
		if audioData, err = audio.WrapPCM16(audioData, s.sampleRate, 1); err != nil {
			return nil, fmt.Errorf("ошибка упаковки PCM: %w", err)
		}
	}

	s.logger.Info("🎵 аудио успешно сгенерировано", zap.Int("audio_size", len(audioData)))
	return audioData, nil
}
