package tts

import (
	"context"
	"fmt"

	"tts-synth/internal/config"

	"go.uber.org/zap"
)

// Loader создает модель по конфигурации. Подменяется в тестах.
type Loader func(ctx context.Context, cfg *config.TTSConfig, logger *zap.Logger) (TTSService, error)

// Модели по умолчанию для бэкендов, где идентификатор обязателен
const (
	DefaultCoquiModel  = "tts_models/en/ljspeech/tacotron2-DDC"
	DefaultOpenAIModel = "tts-1"
	DefaultGoogleVoice = "en-US-Standard-C"
)

// DefaultModel возвращает идентификатор модели по умолчанию для бэкенда
func DefaultModel(backend string) string {
	switch backend {
	case config.BackendCoqui, config.BackendMozilla:
		return DefaultCoquiModel
	case config.BackendOpenAI:
		return DefaultOpenAIModel
	case config.BackendGoogle:
		return DefaultGoogleVoice
	default:
		// piper, alltalk и festival выбирают голос сами
		return ""
	}
}

// Load создает и инициализирует модель на основе конфигурации.
// Любая ошибка оборачивается в ErrModelLoad.
func Load(ctx context.Context, cfg *config.TTSConfig, logger *zap.Logger) (TTSService, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel(cfg.Backend)
	}

	logger.Info("загружаем TTS модель",
		zap.String("backend", cfg.Backend),
		zap.String("model", model),
		zap.Bool("use_acceleration", cfg.UseAcceleration))

	if cfg.UseAcceleration && cfg.Backend != config.BackendCoqui && cfg.Backend != config.BackendMozilla {
		logger.Warn("аппаратное ускорение не настраивается для этого бэкенда, флаг игнорируется",
			zap.String("backend", cfg.Backend))
	}

	var (
		service TTSService
		err     error
	)

	switch cfg.Backend {
	case config.BackendCoqui, config.BackendMozilla:
		s := NewMozillaService(logger, model, cfg.Coqui.BinPath, cfg.UseAcceleration, cfg.ProgressBar)
		err = s.Init(ctx, cfg.Coqui.VerifyModel)
		service = s
	case config.BackendPiper:
		s := NewPiperService(logger, cfg.Piper.BaseURL, model, cfg.Piper.SampleRate)
		err = s.Init(ctx)
		service = s
	case config.BackendAllTalk:
		s := NewAllTalkService(logger, cfg.AllTalk.BaseURL, model, cfg.AllTalk.Language)
		err = s.Init(ctx)
		service = s
	case config.BackendFestival:
		s := NewFestivalService(logger, cfg.Festival.FestivalBin, cfg.Festival.Text2WaveBin, model)
		err = s.Init(ctx)
		service = s
	case config.BackendOpenAI:
		service, err = NewOpenAIService(logger, cfg.OpenAI, model)
	case config.BackendGoogle:
		service, err = NewGoogleService(ctx, logger, cfg.Google, model)
	default:
		err = fmt.Errorf("неподдерживаемый TTS бэкенд: %s. Поддерживаются: %v", cfg.Backend, config.Backends())
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, cfg.Backend, err)
	}

	logger.Info("TTS модель загружена",
		zap.String("backend", service.Name()),
		zap.String("model", model))

	return service, nil
}
