package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// coquiSearchPaths - пути, в которых ищется исполняемый файл Coqui TTS
var coquiSearchPaths = []string{
	"tts",                  // Глобальный путь
	"/usr/local/bin/tts",   // Симлинк
	"/opt/tts_env/bin/tts", // Volume mount
}

// MozillaService предоставляет функциональность Text-to-Speech через Coqui (Mozilla) TTS CLI
type MozillaService struct {
	logger      *zap.Logger
	ttsPath     string // Путь к исполняемому файлу TTS
	model       string
	useCUDA     bool
	progressBar bool
}

// NewMozillaService создает новый Coqui TTS сервис. Если ttsPath пуст,
// исполняемый файл ищется в стандартных путях при Init.
func NewMozillaService(logger *zap.Logger, model, ttsPath string, useCUDA, progressBar bool) *MozillaService {
	return &MozillaService{
		logger:      logger,
		ttsPath:     ttsPath,
		model:       model,
		useCUDA:     useCUDA,
		progressBar: progressBar,
	}
}

func (s *MozillaService) Name() string { return "coqui" }

// Init находит исполняемый файл и, если нужно, проверяет, что модель известна CLI
func (s *MozillaService) Init(ctx context.Context, verifyModel bool) error {
	if err := s.checkMozillaTTS(ctx); err != nil {
		return fmt.Errorf("coqui tts не установлен: %w", err)
	}
	if s.model == "" {
		return fmt.Errorf("не указан идентификатор модели")
	}
	if !verifyModel {
		return nil
	}
	return s.verifyModel(ctx)
}

// checkMozillaTTS проверяет, что Coqui TTS установлен
func (s *MozillaService) checkMozillaTTS(ctx context.Context) error {
	ttsPaths := coquiSearchPaths
	if s.ttsPath != "" {
		ttsPaths = []string{s.ttsPath}
	}

	var lastErr error
	for _, ttsPath := range ttsPaths {
		cmd := exec.CommandContext(ctx, ttsPath, "--version")
		output, err := cmd.Output()
		if err == nil {
			s.logger.Debug("coqui tts найден",
				zap.String("path", ttsPath),
				zap.String("version", strings.TrimSpace(string(output))))
			// Сохраняем рабочий путь
			s.ttsPath = ttsPath
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("coqui tts не найден ни в одном из путей: %w", lastErr)
}

// verifyModel проверяет, что модель присутствует в выводе --list_models
func (s *MozillaService) verifyModel(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.ttsPath, "--list_models")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("ошибка получения списка моделей: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		// Строки вида " 12: tts_models/en/ljspeech/tacotron2-DDC [already downloaded]"
		for _, field := range strings.Fields(scanner.Text()) {
			if field == s.model {
				s.logger.Debug("модель найдена в списке coqui tts", zap.String("model", s.model))
				return nil
			}
		}
	}

	return fmt.Errorf("модель %q не найдена в списке моделей coqui tts", s.model)
}

// SynthesizeText преобразует текст в аудио через Coqui TTS
func (s *MozillaService) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	cleanText := normalizeText(text)

	s.logger.Info("🎵 генерируем аудио через Coqui TTS",
		zap.String("model", s.model),
		zap.Int("text_length", len(cleanText)))

	audioData, err := s.generateAudio(ctx, cleanText)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.Int("audio_size", len(audioData)))

	return audioData, nil
}

// generateAudio генерирует аудио через Coqui TTS во временный файл и читает его
func (s *MozillaService) generateAudio(ctx context.Context, text string) ([]byte, error) {
	tempAudioFile := tempPath("coqui_audio", ".wav")
	defer removeTemp(s.logger, tempAudioFile)

	cmd := exec.CommandContext(ctx, s.ttsPath, s.buildArgs(text, tempAudioFile)...)

	// Вывод CLI (включая прогресс-бар) не должен попадать в stdout процесса
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger.Error("ошибка выполнения coqui tts",
			zap.Error(err),
			zap.String("stderr", tail(stderr.String(), 2000)))
		return nil, fmt.Errorf("ошибка выполнения coqui tts: %w", err)
	}

	s.logger.Debug("вывод coqui tts",
		zap.String("stdout", tail(stdout.String(), 2000)),
		zap.String("stderr", tail(stderr.String(), 2000)))

	return readAudioFile(tempAudioFile)
}

// buildArgs собирает аргументы командной строки Coqui TTS.
// --use_cuda объявлен в CLI как type=bool: любое непустое значение, включая "false",
// включает CUDA. Поэтому без ускорения флаг не передается вовсе.
func (s *MozillaService) buildArgs(text, outPath string) []string {
	args := []string{
		"--text", text,
		"--model_name", s.model,
		"--out_path", outPath,
		"--progress_bar", strconv.FormatBool(s.progressBar),
	}
	if s.useCUDA {
		args = append(args, "--use_cuda", "true")
	}
	return args
}
