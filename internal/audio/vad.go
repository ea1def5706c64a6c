package audio

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-audio/wav"
)

// Пороги как у ffmpeg silencedetect=noise=-30dB:d=0.5
const (
	DefaultSilenceThresholdDB = -30.0
	DefaultMinSilence         = 500 * time.Millisecond
)

// Окно анализа, 10 мс
const framesPerSecond = 100

// SilenceSegment представляет сегмент тишины
type SilenceSegment struct {
	Start    time.Duration `json:"start"`
	Duration time.Duration `json:"duration"`
}

// VADReport - результат Voice Activity Detection по WAV
type VADReport struct {
	Silences []SilenceSegment `json:"silences"` // только сегменты не короче minSilence
	Speech   time.Duration    `json:"speech"`   // суммарная длительность окон выше порога
	Total    time.Duration    `json:"total"`
}

// IsSilent сообщает, что в аудио нет ни одного окна выше порога
func (r *VADReport) IsSilent() bool {
	return r.Speech == 0
}

// DetectSilence находит сегменты тишины в WAV, находящемся в памяти.
// Окно считается тишиной, если его пиковая амплитуда ниже thresholdDB относительно полной шкалы.
func DetectSilence(data []byte, thresholdDB float64, minSilence time.Duration) (*VADReport, error) {
	if !HasRIFFHeader(data) {
		return nil, ErrNotWAV
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения PCM: %w", err)
	}

	sampleRate := int(dec.SampleRate)
	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if sampleRate <= 0 || channels <= 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("%w: некорректный заголовок", ErrNotWAV)
	}

	fullScale := float64(int64(1) << (bitDepth - 1))
	threshold := fullScale * math.Pow(10, thresholdDB/20)

	toDuration := func(frames int) time.Duration {
		return time.Duration(frames) * time.Second / time.Duration(sampleRate)
	}

	samples := buf.Data
	totalFrames := len(samples) / channels
	window := max(sampleRate/framesPerSecond, 1)

	report := &VADReport{Total: toDuration(totalFrames)}
	silenceStart := -1

	closeSilence := func(end int) {
		if silenceStart < 0 {
			return
		}
		if d := toDuration(end - silenceStart); d >= minSilence {
			report.Silences = append(report.Silences, SilenceSegment{
				Start:    toDuration(silenceStart),
				Duration: d,
			})
		}
		silenceStart = -1
	}

	for start := 0; start < totalFrames; start += window {
		end := min(start+window, totalFrames)

		var peak float64
		for _, s := range samples[start*channels : end*channels] {
			if bitDepth == 8 {
				// 8-битный WAV беззнаковый
				s -= 128
			}
			peak = math.Max(peak, math.Abs(float64(s)))
		}

		if peak < threshold {
			if silenceStart < 0 {
				silenceStart = start
			}
			continue
		}
		closeSilence(start)
		report.Speech += toDuration(end - start)
	}
	closeSilence(totalFrames)

	return report, nil
}
