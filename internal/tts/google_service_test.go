package tts

import (
	"context"
	"net"
	"sync"
	"testing"

	"tts-synth/internal/config"

	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// fakeTextToSpeech - gRPC сервер Google TTS в памяти процесса
type fakeTextToSpeech struct {
	ttspb.UnimplementedTextToSpeechServer

	mu    sync.Mutex
	got   *ttspb.SynthesizeSpeechRequest
	audio []byte
	err   error
}

func (f *fakeTextToSpeech) SynthesizeSpeech(_ context.Context, req *ttspb.SynthesizeSpeechRequest) (*ttspb.SynthesizeSpeechResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &ttspb.SynthesizeSpeechResponse{AudioContent: f.audio}, nil
}

func (f *fakeTextToSpeech) request() *ttspb.SynthesizeSpeechRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got
}

// startFakeGoogle поднимает fake сервер и возвращает опции клиента для него
func startFakeGoogle(t *testing.T, fake *fakeTextToSpeech) []option.ClientOption {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	ttspb.RegisterTextToSpeechServer(server, fake)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	return []option.ClientOption{
		option.WithEndpoint(lis.Addr().String()),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}

func TestGoogleService_SynthesizeText(t *testing.T) {
	fake := &fakeTextToSpeech{audio: testWAV(t)}
	opts := startFakeGoogle(t, fake)

	s, err := NewGoogleService(context.Background(), zap.NewNop(), config.GoogleConfig{}, "en-US-Standard-C", opts...)
	require.NoError(t, err)
	defer s.Close()

	data, err := s.SynthesizeText(context.Background(), "  Hello \n  world  ")
	require.NoError(t, err)
	assert.Equal(t, testWAV(t), data)

	req := fake.request()
	require.NotNil(t, req)
	assert.Equal(t, "Hello world", req.GetInput().GetText())
	assert.Equal(t, "en-US-Standard-C", req.GetVoice().GetName())
	assert.Equal(t, "en-US", req.GetVoice().GetLanguageCode())
	assert.Equal(t, ttspb.AudioEncoding_LINEAR16, req.GetAudioConfig().GetAudioEncoding())
}

func TestGoogleService_LanguageOverride(t *testing.T) {
	fake := &fakeTextToSpeech{audio: testWAV(t)}
	opts := startFakeGoogle(t, fake)

	s, err := NewGoogleService(context.Background(), zap.NewNop(), config.GoogleConfig{Language: "en-GB"}, "en-US-Standard-C", opts...)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.SynthesizeText(context.Background(), "Hello world")
	require.NoError(t, err)
	assert.Equal(t, "en-GB", fake.request().GetVoice().GetLanguageCode())
}

func TestGoogleService_RequestError(t *testing.T) {
	fake := &fakeTextToSpeech{err: status.Error(codes.InvalidArgument, "voice does not exist")}
	opts := startFakeGoogle(t, fake)

	s, err := NewGoogleService(context.Background(), zap.NewNop(), config.GoogleConfig{}, "en-US-Standard-C", opts...)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.SynthesizeText(context.Background(), "Hello world")
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, err.Error(), "voice does not exist")
}

func TestGoogleService_UnknownLanguage(t *testing.T) {
	_, err := NewGoogleService(context.Background(), zap.NewNop(), config.GoogleConfig{}, "custom")
	assert.Error(t, err)
}
