package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// festivalVoices - голоса в порядке предпочтения (от лучшего к худшему)
var festivalVoices = []string{
	"us1_mbrola", // Американский женский голос (MBROLA)
	"us2_mbrola", // Американский мужской голос (MBROLA)
	"us3_mbrola",
	"rab_diphone", // Британский голос
	"kal_diphone", // Стандартный голос
}

const defaultFestivalVoice = "kal_diphone"

// FestivalService предоставляет функциональность Text-to-Speech через Festival
type FestivalService struct {
	logger       *zap.Logger
	festivalBin  string
	text2waveBin string
	voice        string
}

// NewFestivalService создает новый Festival TTS сервис. Пустой voice означает
// автоматический выбор лучшего установленного голоса при Init.
func NewFestivalService(logger *zap.Logger, festivalBin, text2waveBin, voice string) *FestivalService {
	if festivalBin == "" {
		festivalBin = "festival"
	}
	if text2waveBin == "" {
		text2waveBin = "text2wave"
	}
	return &FestivalService{
		logger:       logger,
		festivalBin:  festivalBin,
		text2waveBin: text2waveBin,
		voice:        strings.TrimPrefix(voice, "voice_"),
	}
}

func (s *FestivalService) Name() string { return "festival" }

// Init проверяет, что Festival установлен, и выбирает голос
func (s *FestivalService) Init(ctx context.Context) error {
	if err := s.checkFestival(ctx); err != nil {
		return fmt.Errorf("festival не установлен: %w", err)
	}

	if s.voice == "" {
		s.voice = s.getBestVoice(ctx)
		return nil
	}

	if !s.hasVoice(ctx, s.voice) {
		return fmt.Errorf("голос festival %q не установлен", s.voice)
	}
	return nil
}

// checkFestival проверяет наличие festival и text2wave
func (s *FestivalService) checkFestival(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.festivalBin, "--version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("festival не найден: %w", err)
	}

	if _, err := exec.LookPath(s.text2waveBin); err != nil {
		return fmt.Errorf("text2wave не найден: %w", err)
	}

	s.logger.Debug("Festival версия", zap.String("version", strings.TrimSpace(string(output))))
	return nil
}

// hasVoice проверяет, что festival может переключиться на голос
func (s *FestivalService) hasVoice(ctx context.Context, voice string) bool {
	cmd := exec.CommandContext(ctx, s.festivalBin, "-b", fmt.Sprintf("(voice_%s)", voice))
	return cmd.Run() == nil
}

// getBestVoice возвращает лучший доступный голос
func (s *FestivalService) getBestVoice(ctx context.Context) string {
	for _, voice := range festivalVoices {
		if s.hasVoice(ctx, voice) {
			s.logger.Info("🎤 Используем голос", zap.String("voice", voice))
			return voice
		}
	}

	s.logger.Warn("🎤 Используем стандартный голос", zap.String("voice", defaultFestivalVoice))
	return defaultFestivalVoice
}

// SynthesizeText преобразует текст в аудио через Festival
func (s *FestivalService) SynthesizeText(ctx context.Context, text string) ([]byte, error) {
	cleanText := normalizeText(text)

	s.logger.Info("🎵 генерируем аудио через Festival",
		zap.String("voice", s.voice),
		zap.Int("text_length", len(cleanText)))

	audioData, err := s.generateAudio(ctx, cleanText)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации аудио: %w", err)
	}

	s.logger.Info("🎵 аудио успешно сгенерировано",
		zap.Int("audio_size", len(audioData)))

	return audioData, nil
}

// generateAudio генерирует аудио через text2wave
func (s *FestivalService) generateAudio(ctx context.Context, text string) ([]byte, error) {
	tempTextFile := tempPath("festival_text", ".txt")
	if err := os.WriteFile(tempTextFile, []byte(text), 0o600); err != nil {
		return nil, fmt.Errorf("ошибка записи текста: %w", err)
	}
	defer removeTemp(s.logger, tempTextFile)

	tempAudioFile := tempPath("festival_audio", ".wav")
	defer removeTemp(s.logger, tempAudioFile)

	cmd := exec.CommandContext(ctx, s.text2waveBin,
		"-eval", fmt.Sprintf("(voice_%s)", s.voice),
		tempTextFile, "-o", tempAudioFile)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		s.logger.Error("ошибка выполнения text2wave",
			zap.Error(err),
			zap.String("stderr", tail(stderr.String(), 2000)))
		return nil, fmt.Errorf("ошибка выполнения text2wave: %w", err)
	}

	return readAudioFile(tempAudioFile)
}
