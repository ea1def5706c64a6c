package tts

import (
	"context"
	"fmt"
	"io"
	"slices"

	"tts-synth/internal/config"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAISpeechModels - модели, которые принимает /audio/speech
var openAISpeechModels = []string{"tts-1", "tts-1-hd", "gpt-4o-mini-tts"}

// OpenAIService синтезирует речь через OpenAI Speech API
type OpenAIService struct {
	logger *zap.Logger
	client *openai.Client
	model  openai.SpeechModel
	voice  openai.SpeechVoice
}

// NewOpenAIService создает OpenAI TTS сервис и проверяет параметры модели
func NewOpenAIService(logger *zap.Logger, cfg config.OpenAIConfig, model string) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY не установлен")
	}
	if !slices.Contains(openAISpeechModels, model) {
		return nil, fmt.Errorf("неизвестная модель OpenAI TTS %q, поддерживаются: %v", model, openAISpeechModels)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	voice := cfg.Voice
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	return &OpenAIService{
		logger: logger,
		client: openai.NewClientWithConfig(clientCfg),
		model:  openai.SpeechModel(model),
		voice:  openai.SpeechVoice(voice),
	}, nil
}

func (s *OpenAIService) Name() string { return "openai" }

// SynthesizeText преобразует текст в WAV через OpenAI
func (s *OpenAIService) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	cleanText := normalizeText(text)

	s.logger.Info("🎵 генерируем аудио через OpenAI TTS",
		zap.String("model", string(s.model)),
		zap.String("voice", string(s.voice)),
		zap.Int("text_length", len(cleanText)))

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          cleanText,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к OpenAI TTS: %w", err)
	}
	defer resp.Close()

	audioData, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио данных: %w", err)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.Int("audio_size", len(audioData)))

	return audioData, nil
}
