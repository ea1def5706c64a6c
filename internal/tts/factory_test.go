package tts

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"tts-synth/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultModel(t *testing.T) {
	assert.Equal(t, "tts_models/en/ljspeech/tacotron2-DDC", DefaultModel(config.BackendCoqui))
	assert.Equal(t, DefaultCoquiModel, DefaultModel(config.BackendMozilla))
	assert.Equal(t, "tts-1", DefaultModel(config.BackendOpenAI))
	assert.Equal(t, DefaultGoogleVoice, DefaultModel(config.BackendGoogle))
	assert.Empty(t, DefaultModel(config.BackendPiper))
	assert.Empty(t, DefaultModel(config.BackendFestival))
}

func TestLoad_UnknownBackend(t *testing.T) {
	_, err := Load(context.Background(), &config.TTSConfig{Backend: "espeak"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoad_CoquiMissingBinary(t *testing.T) {
	cfg := &config.TTSConfig{
		Backend: config.BackendCoqui,
		Coqui:   config.CoquiConfig{BinPath: filepath.Join(t.TempDir(), "tts"), VerifyModel: true},
	}
	_, err := Load(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoad_CoquiUnknownModel(t *testing.T) {
	bin, _ := fakeCoqui(t, 0)
	cfg := &config.TTSConfig{
		Backend: config.BackendCoqui,
		Model:   "tts_models/en/ljspeech/does-not-exist",
		Coqui:   config.CoquiConfig{BinPath: bin, VerifyModel: true},
	}
	_, err := Load(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoad_Coqui(t *testing.T) {
	bin, _ := fakeCoqui(t, 0)
	cfg := &config.TTSConfig{
		Backend: config.BackendMozilla,
		Coqui:   config.CoquiConfig{BinPath: bin, VerifyModel: true},
	}
	service, err := Load(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "coqui", service.Name())

	data, err := service.SynthesizeText(context.Background(), "Hello world")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestLoad_Piper(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	cfg := &config.TTSConfig{
		Backend:         config.BackendPiper,
		UseAcceleration: true, // игнорируется с предупреждением
		Piper:           config.PiperConfig{BaseURL: server.URL, SampleRate: 22050},
	}
	service, err := Load(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "piper", service.Name())
}

func TestLoad_PiperUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := &config.TTSConfig{
		Backend: config.BackendPiper,
		Piper:   config.PiperConfig{BaseURL: url, SampleRate: 22050},
	}
	_, err := Load(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoad_OpenAIWithoutKey(t *testing.T) {
	_, err := Load(context.Background(), &config.TTSConfig{Backend: config.BackendOpenAI}, zap.NewNop())
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoad_Festival(t *testing.T) {
	fixture := writeFixture(t)
	festival := writeScript(t, "festival", `case "$1" in
  --version) echo "Festival Speech Synthesis System 2.5.0"; exit 0;;
  -b) [ "$2" = "(voice_kal_diphone)" ] && exit 0; exit 1;;
esac
exit 1
`)
	text2wave := writeScript(t, "text2wave", fmt.Sprintf(`out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
cp %q "$out"
`, fixture))

	cfg := &config.TTSConfig{
		Backend:  config.BackendFestival,
		Festival: config.FestivalConfig{FestivalBin: festival, Text2WaveBin: text2wave},
	}
	service, err := Load(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	// Ни один MBROLA голос не установлен, выбирается стандартный
	assert.Equal(t, "kal_diphone", service.(*FestivalService).voice)

	data, err := service.SynthesizeText(context.Background(), "Hello world")
	require.NoError(t, err)
	assert.Equal(t, testWAV(t), data)

	// Явно заданный, но отсутствующий голос
	cfg.Model = "voice_us1_mbrola"
	_, err = Load(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestLoad_FestivalMissing(t *testing.T) {
	cfg := &config.TTSConfig{
		Backend:  config.BackendFestival,
		Festival: config.FestivalConfig{FestivalBin: filepath.Join(t.TempDir(), "festival")},
	}
	_, err := Load(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrModelLoad)
}
