package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalid возвращается, когда конфигурация не прошла валидацию
var ErrInvalid = errors.New("некорректная конфигурация")

// Поддерживаемые TTS бэкенды
const (
	BackendCoqui    = "coqui"
	BackendMozilla  = "mozilla" // историческое имя Coqui TTS
	BackendPiper    = "piper"
	BackendAllTalk  = "alltalk"
	BackendFestival = "festival"
	BackendOpenAI   = "openai"
	BackendGoogle   = "google"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	TTS     TTSConfig
	Output  OutputConfig
	Metrics MetricsConfig
	App     AppConfig
}

// TTSConfig описывает, какую модель загружать и как
type TTSConfig struct {
	Backend         string        `env:"TTS_BACKEND" envDefault:"coqui"`
	Model           string        `env:"TTS_MODEL"` // пусто - модель по умолчанию для бэкенда
	UseAcceleration bool          `env:"TTS_USE_ACCELERATION" envDefault:"false"`
	ProgressBar     bool          `env:"TTS_PROGRESS_BAR" envDefault:"false"`
	Timeout         time.Duration `env:"TTS_TIMEOUT" envDefault:"0s"` // 0 - без ограничения

	Coqui    CoquiConfig
	Piper    PiperConfig
	AllTalk  AllTalkConfig
	Festival FestivalConfig
	OpenAI   OpenAIConfig
	Google   GoogleConfig
}

// CoquiConfig содержит настройки Coqui (Mozilla) TTS
type CoquiConfig struct {
	BinPath     string `env:"TTS_COQUI_BIN"`
	VerifyModel bool   `env:"TTS_COQUI_VERIFY_MODEL" envDefault:"true"`
}

// PiperConfig содержит настройки Piper TTS API
type PiperConfig struct {
	BaseURL    string `env:"TTS_PIPER_URL" envDefault:"http://localhost:5000"`
	SampleRate int    `env:"TTS_PIPER_SAMPLE_RATE" envDefault:"22050"`
}

// AllTalkConfig содержит настройки AllTalk TTS API
type AllTalkConfig struct {
	BaseURL  string `env:"TTS_ALLTALK_URL" envDefault:"http://localhost:7851"`
	Language string `env:"TTS_ALLTALK_LANGUAGE" envDefault:"en"`
}

type FestivalConfig struct {
	FestivalBin  string `env:"TTS_FESTIVAL_BIN" envDefault:"festival"`
	Text2WaveBin string `env:"TTS_TEXT2WAVE_BIN" envDefault:"text2wave"`
}

type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL"`
	Voice   string `env:"TTS_OPENAI_VOICE" envDefault:"alloy"`
}

// GoogleConfig содержит настройки Google Cloud Text-to-Speech.
// Учетные данные читаются SDK из GOOGLE_APPLICATION_CREDENTIALS (ADC).
type GoogleConfig struct {
	CredentialsPath string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	Language        string `env:"GOOGLE_TTS_LANGUAGE"`
}

// OutputConfig управляет записью итогового файла
type OutputConfig struct {
	EnsureParentDir bool `env:"OUTPUT_ENSURE_PARENT_DIR" envDefault:"true"`
	ValidateWAV     bool `env:"OUTPUT_VALIDATE_WAV" envDefault:"true"`
}

// MetricsConfig - куда выгружать метрики по завершении запуска. Пустые значения отключают выгрузку.
type MetricsConfig struct {
	PushgatewayURL string `env:"METRICS_PUSHGATEWAY_URL"`
	Job            string `env:"METRICS_JOB" envDefault:"tts_synth"`
	TextfilePath   string `env:"METRICS_TEXTFILE"` // для node_exporter textfile collector
}

type AppConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	cfg.TTS.Backend = strings.ToLower(strings.TrimSpace(cfg.TTS.Backend))
	if cfg.TTS.Backend == "" {
		cfg.TTS.Backend = BackendCoqui
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadApp читает только настройки приложения, нужные для логгера.
// Ошибки разбора игнорируются: полная конфигурация проверяется позже в Load.
func LoadApp() AppConfig {
	_ = godotenv.Load()

	var app AppConfig
	if err := env.Parse(&app); err != nil {
		return AppConfig{Env: "development", LogLevel: "info"}
	}
	return app
}

// Validate проверяет корректность конфигурации.
// Вызывается повторно после применения флагов командной строки.
func Validate(config *Config) error {
	switch config.TTS.Backend {
	case BackendCoqui, BackendMozilla, BackendPiper, BackendAllTalk, BackendFestival, BackendGoogle:
	case BackendOpenAI:
		if config.TTS.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY не установлен", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: неподдерживаемый TTS_BACKEND %q, поддерживаются: %s",
			ErrInvalid, config.TTS.Backend, strings.Join(Backends(), ", "))
	}
	if config.TTS.Timeout < 0 {
		return fmt.Errorf("%w: TTS_TIMEOUT не может быть отрицательным", ErrInvalid)
	}
	if config.TTS.Piper.SampleRate <= 0 {
		return fmt.Errorf("%w: TTS_PIPER_SAMPLE_RATE должен быть положительным", ErrInvalid)
	}
	if config.Metrics.PushgatewayURL != "" && config.Metrics.Job == "" {
		return fmt.Errorf("%w: METRICS_JOB не установлен", ErrInvalid)
	}

	return nil
}

// Backends возвращает список поддерживаемых бэкендов
func Backends() []string {
	return []string{BackendCoqui, BackendPiper, BackendAllTalk, BackendFestival, BackendOpenAI, BackendGoogle}
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	return zap.NewAtomicLevelAt(ParseLogLevel(c.LogLevel))
}

// ParseLogLevel переводит строковый уровень в zapcore уровень, по умолчанию info
func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
