package tts

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"tts-synth/internal/audio"

	"github.com/stretchr/testify/require"
)

// testWAV возвращает короткий WAV с тишиной
func testWAV(t *testing.T) []byte {
	t.Helper()
	data, err := audio.WrapPCM16(make([]byte, 4410), 22050, 1)
	require.NoError(t, err)
	return data
}

// writeFixture сохраняет WAV во временную директорию и возвращает путь
func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	require.NoError(t, os.WriteFile(path, testWAV(t), 0o644))
	return path
}

// writeScript создает исполняемый shell скрипт, подменяющий внешний движок
func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell скрипты не поддерживаются на windows")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}
