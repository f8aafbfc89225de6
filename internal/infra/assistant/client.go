package assistant

import (
	"context"
	"fmt"
	"log/slog"

	assistantpb "google.golang.org/genproto/googleapis/assistant/embedded/v1alpha1"
	"google.golang.org/grpc"

	"embedded-assistant/internal/application"
	"embedded-assistant/internal/domain"
	"embedded-assistant/internal/infra"
)

// Client opens Converse calls on an authorized channel.
type Client struct {
	api    assistantpb.EmbeddedAssistantClient
	retry  infra.RetryConfig
	logger *slog.Logger
}

func NewClient(conn grpc.ClientConnInterface, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api:    assistantpb.NewEmbeddedAssistantClient(conn),
		retry:  infra.DefaultRetryConfig(),
		logger: logger,
	}
}

// Converse opens one bidirectional call. Transient failures to open the
// stream are retried; ctx bounds the whole call.
func (c *Client) Converse(ctx context.Context) (application.ConverseStream, error) {
	var cs assistantpb.EmbeddedAssistant_ConverseClient
	attempt := 0
	err := infra.WithRetry(ctx, c.retry, func() error {
		attempt++
		s, err := c.api.Converse(ctx)
		if err != nil {
			c.logger.Warn("opening converse stream", "attempt", attempt, "error", err)
			return err
		}
		cs = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("opening converse stream: %w", err)
	}
	return &converseStream{cs: cs}, nil
}

// converseStream maps domain messages onto the generated stream.
type converseStream struct {
	cs assistantpb.EmbeddedAssistant_ConverseClient
}

func (s *converseStream) Send(req *domain.ConverseRequest) error {
	return s.cs.Send(toProtoRequest(req))
}

func (s *converseStream) CloseSend() error {
	return s.cs.CloseSend()
}

func (s *converseStream) Recv() (*domain.ConverseResponse, error) {
	resp, err := s.cs.Recv()
	if err != nil {
		return nil, err
	}
	return fromProtoResponse(resp), nil
}
