package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tts-synth/internal/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics(t *testing.T) {
	m := New(zap.NewNop(), config.MetricsConfig{Job: "tts_synth"})

	m.RecordModelLoad("coqui", true, 2*time.Second)
	m.RecordModelLoad("coqui", false, time.Second)
	m.RecordSynthesis("coqui", true, 1500*time.Millisecond, 48000)
	m.RecordSynthesis("coqui", false, time.Second, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelLoads.WithLabelValues("coqui", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelLoads.WithLabelValues("coqui", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.synthesisTotal.WithLabelValues("coqui", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.synthesisTotal.WithLabelValues("coqui", "failed")))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess), 0.0)

	count, err := testutil.GatherAndCount(m.registry, "tts_synthesis_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_FailedSynthesisKeepsLastSuccess(t *testing.T) {
	m := New(zap.NewNop(), config.MetricsConfig{Job: "tts_synth"})

	m.RecordSynthesis("coqui", false, time.Second, 48000)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.synthesisTotal.WithLabelValues("coqui", "failed")))
}

func TestMetrics_ExportDisabled(t *testing.T) {
	m := New(zap.NewNop(), config.MetricsConfig{Job: "tts_synth"})
	assert.NoError(t, m.Export(context.Background()))
}

func TestMetrics_Push(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := New(zap.NewNop(), config.MetricsConfig{PushgatewayURL: server.URL, Job: "tts_synth"})
	m.RecordSynthesis("piper", true, time.Second, 1024)

	require.NoError(t, m.Export(context.Background()))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/tts_synth"), gotPath)
}

func TestMetrics_PushFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	textfile := filepath.Join(t.TempDir(), "tts.prom")
	m := New(zap.NewNop(), config.MetricsConfig{PushgatewayURL: server.URL, Job: "tts_synth", TextfilePath: textfile})

	assert.Error(t, m.Export(context.Background()))
	// textfile пишется даже при недоступном pushgateway
	assert.FileExists(t, textfile)
}

func TestMetrics_Textfile(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "tts.prom")
	m := New(zap.NewNop(), config.MetricsConfig{Job: "tts_synth", TextfilePath: textfile})
	m.RecordSynthesis("piper", true, time.Second, 1024)

	require.NoError(t, m.Export(context.Background()))

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tts_synthesis_total{backend="piper",status="success"} 1`)
	assert.Contains(t, string(data), "tts_audio_bytes_count 1")
}
