package application

import "iter"

// Conversation is the half-duplex audio stream a turn records from and plays
// back to.
type Conversation interface {
	StartRecording() error
	StopRecording()
	Chunks() iter.Seq[[]byte]
	StartPlayback()
	Write(p []byte) (int, error)
	StopPlayback() error
	SetVolume(percent int)
}
