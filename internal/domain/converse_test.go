package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"embedded-assistant/internal/domain"
)

func TestStatus_OK(t *testing.T) {
	var missing *domain.Status
	assert.True(t, missing.OK())
	assert.True(t, (&domain.Status{}).OK())
	assert.False(t, (&domain.Status{Code: 14, Message: "unavailable"}).OK())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "END_OF_UTTERANCE", domain.EventEndOfUtterance.String())
	assert.Equal(t, "EVENT_TYPE_UNSPECIFIED", domain.EventType(9).String())
	assert.Equal(t, "DIALOG_FOLLOW_ON", domain.MicrophoneDialogFollowOn.String())
	assert.Equal(t, "CLOSE_MICROPHONE", domain.MicrophoneClose.String())
}

func TestAudioFormat_BytesPerSecond(t *testing.T) {
	f := domain.AudioFormat{SampleRate: domain.DefaultSampleRate, Channels: 1, BitDepth: domain.DefaultSampleWidth * 8}
	assert.Equal(t, 32000, f.BytesPerSecond())
}
