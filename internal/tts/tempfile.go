package tts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tempPath возвращает уникальный путь во временной директории.
// Сам файл создает внешний процесс (tts, text2wave).
func tempPath(prefix, ext string) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext))
}

// removeTemp удаляет временный файл, отсутствие файла не ошибка
func removeTemp(logger *zap.Logger, filename string) {
	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		logger.Warn("ошибка удаления временного файла",
			zap.String("filename", filename),
			zap.Error(err))
	}
}

// readAudioFile читает файл, созданный внешним процессом
func readAudioFile(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("аудио файл не был создан: %s", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения аудио: %w", err)
	}
	return data, nil
}

// tail возвращает последние n байт строки
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
