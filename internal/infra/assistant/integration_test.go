package assistant

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embedded-assistant/internal/application"
	"embedded-assistant/internal/domain"
	"embedded-assistant/internal/infra/audio"
)

func TestIntegration_WaveFileTurn(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	request := make([]byte, 3*320)
	for i := range request {
		request[i] = byte(i)
	}
	writer, err := audio.CreateWaveSink(in, 16000, 2)
	require.NoError(t, err)
	_, err = writer.Write(request)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	source, err := audio.OpenWaveSource(in, 16000, 2, discardLogger(),
		audio.WithClock(time.Now, func(time.Duration) {}))
	require.NoError(t, err)
	sink, err := audio.CreateWaveSink(out, 16000, 2)
	require.NoError(t, err)

	stream, err := audio.NewConversationStream(source, sink, audio.ConversationConfig{
		IterSize:    320,
		SampleWidth: 2,
	}, discardLogger())
	require.NoError(t, err)

	conn, got := startFakeAssistant(t, 3)

	a := application.NewAssistant(stream, NewClient(conn, discardLogger()), nil, application.Options{
		SampleRate: 16000,
		Volume:     100,
		Deadline:   5 * time.Second,
		OneShot:    true,
	}, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mode, err := a.Converse(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.MicrophoneClose, mode)
	require.NoError(t, stream.Close())

	h := <-got
	require.NotNil(t, h.config)
	assert.Equal(t, int32(16000), h.config.GetAudioInConfig().GetSampleRateHertz())
	assert.Equal(t, int32(100), h.config.GetAudioOutConfig().GetVolumePercentage())
	require.GreaterOrEqual(t, len(h.chunks), 3)
	assert.Equal(t, request[:320], h.chunks[0])
	assert.Equal(t, request[640:960], h.chunks[2])

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0}, written[len(written)-4:])
}
