package assistant

import (
	assistantpb "google.golang.org/genproto/googleapis/assistant/embedded/v1alpha1"

	"embedded-assistant/internal/domain"
)

func toProtoRequest(req *domain.ConverseRequest) *assistantpb.ConverseRequest {
	if req.Config != nil {
		return &assistantpb.ConverseRequest{
			ConverseRequest: &assistantpb.ConverseRequest_Config{Config: toProtoConfig(req.Config)},
		}
	}
	return &assistantpb.ConverseRequest{
		ConverseRequest: &assistantpb.ConverseRequest_AudioIn{AudioIn: req.AudioIn},
	}
}

func toProtoConfig(cfg *domain.ConverseConfig) *assistantpb.ConverseConfig {
	out := &assistantpb.ConverseConfig{
		AudioInConfig: &assistantpb.AudioInConfig{
			Encoding:        assistantpb.AudioInConfig_Encoding(cfg.AudioIn.Encoding),
			SampleRateHertz: int32(cfg.AudioIn.SampleRateHertz),
		},
		AudioOutConfig: &assistantpb.AudioOutConfig{
			Encoding:         assistantpb.AudioOutConfig_Encoding(cfg.AudioOut.Encoding),
			SampleRateHertz:  int32(cfg.AudioOut.SampleRateHertz),
			VolumePercentage: int32(cfg.AudioOut.VolumePercentage),
		},
	}
	if len(cfg.ConversationState) > 0 {
		out.ConverseState = &assistantpb.ConverseState{ConversationState: cfg.ConversationState}
	}
	return out
}

func fromProtoResponse(resp *assistantpb.ConverseResponse) *domain.ConverseResponse {
	out := &domain.ConverseResponse{}
	switch r := resp.GetConverseResponse().(type) {
	case *assistantpb.ConverseResponse_Error:
		out.Error = &domain.Status{
			Code:    int(r.Error.GetCode()),
			Message: r.Error.GetMessage(),
		}
	case *assistantpb.ConverseResponse_EventType_:
		out.EventType = domain.EventType(r.EventType)
	case *assistantpb.ConverseResponse_AudioOut:
		out.AudioOut = r.AudioOut.GetAudioData()
	case *assistantpb.ConverseResponse_Result:
		out.Result = &domain.ConverseResult{
			SpokenRequestText:  r.Result.GetSpokenRequestText(),
			SpokenResponseText: r.Result.GetSpokenResponseText(),
			ConversationState:  r.Result.GetConversationState(),
			MicrophoneMode:     domain.MicrophoneMode(r.Result.GetMicrophoneMode()),
			VolumePercentage:   int(r.Result.GetVolumePercentage()),
		}
	}
	return out
}
