package application

import (
	"context"

	"embedded-assistant/internal/domain"
)

// ConverseService opens one bidirectional Converse call per turn.
type ConverseService interface {
	Converse(ctx context.Context) (ConverseStream, error)
}

// ConverseStream mirrors a gRPC bidi client stream. Recv returns io.EOF once
// the service has finished the turn.
type ConverseStream interface {
	Send(req *domain.ConverseRequest) error
	CloseSend() error
	Recv() (*domain.ConverseResponse, error)
}
