package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox"
)

// Processor turns a delivered job event into notification rows.
type Processor interface {
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

// Service pumps the job-events subscription into the notifications consumer.
type Service struct {
	subscription *gcppubsub.Subscriber
	processor    Processor
	logg         *logger.Logger
}

func NewService(subscription *gcppubsub.Subscriber, processor Processor, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("job events subscription is required")
	}
	if processor == nil {
		return nil, errors.New("notification processor is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: subscription,
		processor:    processor,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes messages until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		// Malformed attributes will never parse; drop instead of redelivering.
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "unrecognized event type")
		return processResult{}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid payload envelope")
		return processResult{}
	}

	fields["event_id"] = envelope.EventID
	fields["event_type"] = eventType
	logCtx := s.logg.WithFields(ctx, fields)

	if err := s.processor.Process(logCtx, eventType, envelope); err != nil {
		s.logg.Error(logCtx, fmt.Sprintf("process %s failed", eventType), err)
		return processResult{nack: true}
	}
	return processResult{}
}
