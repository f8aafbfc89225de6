package domain

type AudioEncoding int

const (
	EncodingUnspecified AudioEncoding = 0
	EncodingLinear16    AudioEncoding = 1
)

type EventType int

const (
	EventTypeUnspecified EventType = 0
	// EventEndOfUtterance tells the client the service has heard enough and
	// recording should stop.
	EventEndOfUtterance EventType = 1
)

func (e EventType) String() string {
	switch e {
	case EventEndOfUtterance:
		return "END_OF_UTTERANCE"
	default:
		return "EVENT_TYPE_UNSPECIFIED"
	}
}

type MicrophoneMode int

const (
	MicrophoneModeUnspecified MicrophoneMode = 0
	MicrophoneClose           MicrophoneMode = 1
	MicrophoneDialogFollowOn  MicrophoneMode = 2
)

func (m MicrophoneMode) String() string {
	switch m {
	case MicrophoneClose:
		return "CLOSE_MICROPHONE"
	case MicrophoneDialogFollowOn:
		return "DIALOG_FOLLOW_ON"
	default:
		return "MICROPHONE_MODE_UNSPECIFIED"
	}
}

type AudioInConfig struct {
	Encoding        AudioEncoding
	SampleRateHertz int
}

type AudioOutConfig struct {
	Encoding         AudioEncoding
	SampleRateHertz  int
	VolumePercentage int
}

// ConverseConfig is sent in the first request of every Converse call.
type ConverseConfig struct {
	AudioIn           AudioInConfig
	AudioOut          AudioOutConfig
	ConversationState []byte
}

// ConverseRequest carries either the config or a chunk of audio, never both.
type ConverseRequest struct {
	Config  *ConverseConfig
	AudioIn []byte
}

type ConverseResult struct {
	SpokenRequestText  string
	SpokenResponseText string
	ConversationState  []byte
	MicrophoneMode     MicrophoneMode
	VolumePercentage   int
}

type Status struct {
	Code    int
	Message string
}

func (s *Status) OK() bool {
	return s == nil || s.Code == 0
}

// ConverseResponse carries one of an error, an event, audio out or a result.
type ConverseResponse struct {
	Error     *Status
	EventType EventType
	AudioOut  []byte
	Result    *ConverseResult
}
