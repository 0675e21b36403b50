package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/milotrack/milo-price-tracker/internal/platform/models"
	"github.com/milotrack/milo-price-tracker/internal/platform/rabbitmq"
	"github.com/milotrack/milo-price-tracker/pkg/v1/commander"
	"github.com/rs/zerolog"
)

// Refresher runs refresh cycles for a query.
type Refresher interface {
	Refresh(ctx context.Context, query string) (models.Snapshot, error)
}

// RMQHandler handles RMQ messages.
type RMQHandler struct {
	rmq       *rabbitmq.RabbitMQ
	refresher Refresher
	logger    *zerolog.Logger
}

// NewHandler returns new RMQHandler.
func NewHandler(rmq *rabbitmq.RabbitMQ, refresher Refresher, logger *zerolog.Logger) *RMQHandler {
	return &RMQHandler{
		rmq:       rmq,
		refresher: refresher,
		logger:    logger,
	}
}

// Start starts consuming and handling refresh commands from RMQ.
func (h *RMQHandler) Start(ctx context.Context, queue string) error {
	errorsChan, err := h.rmq.Consume(ctx, queue, func(ctx context.Context, message []byte) error {
		cmd, err := decodeMessage(message)
		if err != nil {
			return err
		}

		h.logger.Debug().
			Str("query", cmd.Query).
			Msg("refresh started")

		snapshot, err := h.refresher.Refresh(ctx, cmd.Query)
		if err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}

		h.logger.Debug().
			Str("query", cmd.Query).
			Int("products", len(snapshot.Products)).
			Msg("refresh finished")

		return nil
	})
	if err != nil {
		return err
	}

	go func() {
		for err := range errorsChan {
			h.logger.Error().
				Err(err).
				Msg("can't handle message")
		}
	}()

	return nil
}

func decodeMessage(msg []byte) (*commander.RefreshCommand, error) {
	var cmd commander.RefreshCommand
	err := json.Unmarshal(msg, &cmd)
	if err != nil {
		return nil, fmt.Errorf("can't decode refresh command: %w", err)
	}

	return &cmd, err
}
