package service

import (
	"context"
	"encoding/json"
	"errors"
	"video-consult/dto"
)

var ErrRatingSinkUnavailable = errors.New("rating forwarding is unavailable")

// RatingSink relays patient ratings to the practitioner rating subsystem.
type RatingSink interface {
	Forward(ctx context.Context, message dto.RatingMessage) error
}

// Publisher is the subset of the AMQP publisher the rating sink needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

const RatingRoutingKey = "rating.submitted"

type publishingRatingSink struct {
	publisher Publisher
}

func NewRatingPublisher(publisher Publisher) RatingSink {
	if publisher == nil {
		return UnavailableRatingSink{}
	}
	return &publishingRatingSink{publisher: publisher}
}

func (s *publishingRatingSink) Forward(ctx context.Context, message dto.RatingMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return s.publisher.Publish(ctx, RatingRoutingKey, body)
}

type NoopRatingSink struct{}

func (NoopRatingSink) Forward(context.Context, dto.RatingMessage) error {
	return nil
}

type UnavailableRatingSink struct{}

func (UnavailableRatingSink) Forward(context.Context, dto.RatingMessage) error {
	return ErrRatingSinkUnavailable
}
