package tts

import (
	"context"
	"errors"
	"strings"
)

// ErrModelLoad возвращается, если модель не удалось загрузить
var ErrModelLoad = errors.New("ошибка загрузки модели")

// TTSService представляет загруженную модель Text-to-Speech.
// Экземпляр создается один раз через Load и не изменяется после загрузки.
type TTSService interface {
	// Name возвращает имя бэкенда
	Name() string
	// SynthesizeText преобразует текст в WAV аудио
	SynthesizeText(ctx context.Context, text string) ([]byte, error)
}

// normalizeText схлопывает пробельные символы, переводы строк ломают часть движков
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
