package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultAllTalkVoice = "female_01.wav"

// allTalkResult - ответ /api/tts-generate
type allTalkResult struct {
	Status         string `json:"status"`
	OutputFilePath string `json:"output_file_path"`
	OutputFileURL  string `json:"output_file_url"`
}

// AllTalkService синтезирует речь через AllTalk TTS. Сервер сохраняет файл у себя,
// поэтому синтез - это два запроса: генерация и скачивание.
type AllTalkService struct {
	api      *apiClient
	logger   *zap.Logger
	voice    string
	language string
}

// NewAllTalkService создает новый AllTalk TTS сервис
func NewAllTalkService(logger *zap.Logger, baseURL, voice, language string) *AllTalkService {
	if voice == "" {
		voice = defaultAllTalkVoice
	}
	if language == "" {
		language = "en"
	}
	return &AllTalkService{
		api:      newAPIClient(baseURL, logger),
		logger:   logger,
		voice:    voice,
		language: language,
	}
}

func (s *AllTalkService) Name() string { return "alltalk" }

// Init проверяет, что AllTalk загрузил модель и готов принимать запросы
func (s *AllTalkService) Init(ctx context.Context) error {
	if err := s.api.validate(); err != nil {
		return err
	}

	body, err := s.api.get(ctx, "/api/ready")
	if err != nil {
		return fmt.Errorf("alltalk tts недоступен: %w", err)
	}
	if state := strings.TrimSpace(string(body)); state != "Ready" {
		return fmt.Errorf("alltalk tts не готов: %q", state)
	}
	return nil
}

// SynthesizeText генерирует аудио на сервере AllTalk и скачивает его
func (s *AllTalkService) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	cleanText := normalizeText(text)

	s.logger.Info("🎵 генерируем аудио через AllTalk TTS",
		zap.String("voice", s.voice),
		zap.Int("text_length", len(cleanText)))

	result, err := s.generate(ctx, cleanText)
	if err != nil {
		return nil, fmt.Errorf("alltalk tts: %w", err)
	}

	audioData, err := s.api.get(ctx, result.OutputFileURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка скачивания аудио %s: %w", result.OutputFileURL, err)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.String("server_path", result.OutputFilePath),
		zap.Int("audio_size", len(audioData)))
	return audioData, nil
}

func (s *AllTalkService) generate(ctx context.Context, text string) (*allTalkResult, error) {
	form := url.Values{
		"text_input":            {text},
		"text_filtering":        {"standard"},
		"character_voice_gen":   {s.voice},
		"narrator_enabled":      {"false"},
		"text_not_inside":       {"character"},
		"language":              {s.language},
		"output_file_name":      {fmt.Sprintf("tts_%d", time.Now().UnixNano())},
		"output_file_timestamp": {"true"},
		"autoplay":              {"false"},
	}

	body, err := s.api.post(ctx, "/api/tts-generate", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	var result allTalkResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w", err)
	}
	if result.Status != "generate-success" {
		return nil, fmt.Errorf("статус генерации: %s", result.Status)
	}
	if result.OutputFileURL == "" {
		return nil, fmt.Errorf("в ответе нет output_file_url")
	}
	return &result, nil
}
