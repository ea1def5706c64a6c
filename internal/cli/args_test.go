package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	req, options, err := ParseArgs([]string{"Hello world", "/tmp/out.wav"})
	require.NoError(t, err)
	assert.Equal(t, Request{Text: "Hello world", OutputPath: "/tmp/out.wav"}, req)
	assert.Empty(t, options)
}

func TestParseArgs_TooFew(t *testing.T) {
	for _, args := range [][]string{nil, {}, {"Hello world"}} {
		_, _, err := ParseArgs(args)
		assert.ErrorIs(t, err, ErrUsage, "args: %v", args)
	}
}

func TestParseArgs_OptionsBeforePair(t *testing.T) {
	req, options, err := ParseArgs([]string{"-b", "piper", "--gpu", "Hello", "out.wav"})
	require.NoError(t, err)
	assert.Equal(t, Request{Text: "Hello", OutputPath: "out.wav"}, req)
	assert.Equal(t, []string{"-b", "piper", "--gpu"}, options)
}

func TestParseArgs_TextLooksLikeFlag(t *testing.T) {
	for _, text := range []string{"-5 degrees outside", "-h", "--gpu"} {
		req, options, err := ParseArgs([]string{text, "out.wav"})
		require.NoError(t, err)
		assert.Equal(t, text, req.Text)
		assert.Empty(t, options)
	}
}

func TestParseArgs_EmptyValues(t *testing.T) {
	_, _, err := ParseArgs([]string{"   ", "out.wav"})
	assert.ErrorIs(t, err, ErrUsage)

	_, _, err = ParseArgs([]string{"Hello", ""})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestUsage(t *testing.T) {
	assert.Equal(t, "Usage: synth <text> <output_wav>", Usage("synth"))
}
