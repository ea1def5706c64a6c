package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV возвращается, если данные не являются корректным WAV файлом
var ErrNotWAV = errors.New("данные не являются WAV файлом")

const pcmFormat = 1

// Info описывает параметры WAV файла
type Info struct {
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	BitDepth   int           `json:"bit_depth"`
	Duration   time.Duration `json:"duration"` // 0, если длительность не удалось определить
}

// HasRIFFHeader проверяет сигнатуру RIFF/WAVE без полного разбора
func HasRIFFHeader(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

// Inspect разбирает заголовок WAV и возвращает его параметры
func Inspect(r io.ReadSeeker) (*Info, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
		}
		return nil, ErrNotWAV
	}

	info := &Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}

	// Длительность считаем по размеру data чанка, ошибка здесь не критична
	if err := dec.FwdToPCM(); err == nil {
		bytesPerSec := info.SampleRate * info.Channels * info.BitDepth / 8
		if bytesPerSec > 0 {
			info.Duration = time.Duration(float64(dec.PCMLen()) / float64(bytesPerSec) * float64(time.Second))
		}
	}

	return info, nil
}

// InspectBytes разбирает WAV, находящийся в памяти
func InspectBytes(data []byte) (*Info, error) {
	if !HasRIFFHeader(data) {
		return nil, ErrNotWAV
	}
	return Inspect(bytes.NewReader(data))
}

// InspectFile разбирает WAV файл на диске
func InspectFile(filename string) (*Info, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия аудио файла: %w", err)
	}
	defer f.Close()

	return Inspect(f)
}

// WrapPCM16 упаковывает сырые 16-битные little-endian PCM сэмплы в WAV контейнер
func WrapPCM16(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("некорректные параметры PCM: sample_rate=%d channels=%d", sampleRate, channels)
	}
	if len(pcm)%2 != 0 {
		// Обрезаем неполный последний сэмпл
		pcm = pcm[:len(pcm)-1]
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	// wav.Encoder требует io.WriteSeeker, поэтому пишем через временный файл
	tmp, err := os.CreateTemp("", "pcm_wrap_*.wav")
	if err != nil {
		return nil, fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	enc := wav.NewEncoder(tmp, sampleRate, 16, channels, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("ошибка записи PCM: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("ошибка записи заголовка WAV: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(tmp)
}
