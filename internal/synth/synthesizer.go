package synth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tts-synth/internal/audio"
	"tts-synth/internal/metrics"
	"tts-synth/internal/tts"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSynthesis - модель не смогла синтезировать речь или вернула некорректное аудио
	ErrSynthesis = errors.New("ошибка синтеза речи")
	// ErrOutput - не удалось записать итоговый файл
	ErrOutput = errors.New("ошибка записи аудио файла")
)

// Options управляет записью результата
type Options struct {
	EnsureParentDir bool // создавать недостающие директории
	ValidateWAV     bool // проверять, что модель вернула WAV
}

// Result описывает записанный файл
type Result struct {
	Path string
	Size int64
	Info *audio.Info // nil, если проверка WAV отключена
	VAD  *audio.VADReport
}

// Synthesizer синтезирует речь загруженной моделью и записывает файл
type Synthesizer struct {
	model   tts.TTSService
	opts    Options
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSynthesizer создает синтезатор поверх уже загруженной модели
func NewSynthesizer(model tts.TTSService, opts Options, m *metrics.Metrics, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		model:   model,
		opts:    opts,
		metrics: m,
		logger:  logger,
	}
}

// SynthesizeToFile синтезирует text и записывает WAV в outputPath.
// Существующий файл перезаписывается. При ошибке в outputPath ничего не остается.
func (s *Synthesizer) SynthesizeToFile(ctx context.Context, text, outputPath string) (*Result, error) {
	dir := filepath.Dir(outputPath)
	if s.opts.EnsureParentDir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: создание директории %s: %w", ErrOutput, dir, err)
		}
	}

	started := time.Now()
	audioData, info, vad, err := s.synthesize(ctx, text)
	if err == nil {
		err = s.writeFileAtomic(outputPath, audioData)
	}
	// Успехом считается только записанный файл
	if s.metrics != nil {
		s.metrics.RecordSynthesis(s.model.Name(), err == nil, time.Since(started), len(audioData))
	}
	if err != nil {
		return nil, err
	}

	result := &Result{
		Path: outputPath,
		Size: int64(len(audioData)),
		Info: info,
		VAD:  vad,
	}

	fields := []zap.Field{
		zap.String("path", outputPath),
		zap.Int64("size", result.Size),
		zap.Duration("took", time.Since(started)),
	}
	if info != nil {
		fields = append(fields,
			zap.Int("sample_rate", info.SampleRate),
			zap.Int("channels", info.Channels),
			zap.Duration("audio_duration", info.Duration))
	}
	if vad != nil {
		fields = append(fields, zap.Duration("speech", vad.Speech))
	}
	s.logger.Info("🎵 аудио файл записан", fields...)

	return result, nil
}

// synthesize вызывает модель и проверяет результат
func (s *Synthesizer) synthesize(ctx context.Context, text string) ([]byte, *audio.Info, *audio.VADReport, error) {
	audioData, err := s.model.SynthesizeText(ctx, text)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}
	if len(audioData) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: модель вернула пустое аудио", ErrSynthesis)
	}

	if !s.opts.ValidateWAV {
		return audioData, nil, nil, nil
	}

	info, err := audio.InspectBytes(audioData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	// Тишина не ошибка: текст мог состоять из одних знаков препинания
	vad, err := audio.DetectSilence(audioData, audio.DefaultSilenceThresholdDB, audio.DefaultMinSilence)
	if err != nil {
		s.logger.Warn("не удалось проанализировать аудио на тишину", zap.Error(err))
		return audioData, info, nil, nil
	}
	if vad.IsSilent() {
		s.logger.Warn("модель вернула тишину",
			zap.String("backend", s.model.Name()),
			zap.Duration("audio_duration", vad.Total))
	}
	return audioData, info, vad, nil
}

// writeFileAtomic пишет данные во временный файл рядом с path и переименовывает его.
// С проверкой WAV временный файл перечитывается с диска до переименования.
func (s *Synthesizer) writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()))

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: запись временного файла: %w", ErrOutput, err)
	}
	if s.opts.ValidateWAV {
		if _, err := audio.InspectFile(tmp); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("%w: записанный файл не читается как WAV: %w", ErrOutput, err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: переименование %s: %w", ErrOutput, tmp, err)
	}
	return nil
}
