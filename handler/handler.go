package handler

import (
	"context"
	"encoding/json"
	"fmt"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"video-consult/dto"
	"video-consult/service"
)

type ServiceDependencies struct {
	SessionService service.Service
}

// AppointmentBookedHandler creates the video session of a newly booked
// appointment. Redelivered messages return the existing session.
func AppointmentBookedHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var booked dto.AppointmentBookedMessage
	if err := json.Unmarshal(msg.Body, &booked); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal appointment booked message")
		return err
	}
	if booked.Appointment == "" {
		return fmt.Errorf("appointment booked message without appointment")
	}

	zerolog.Ctx(ctx).Info().
		Str("appointment", booked.Appointment).
		Str("booked_by", booked.BookedBy).
		Msg("received appointment booked message")

	session, err := deps.SessionService.CreateSession(ctx, service.Caller{User: booked.BookedBy}, dto.CreateSessionRequest{
		PatientAppointment: booked.Appointment,
		AllowMagicLink:     booked.AllowMagicLink,
	})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("appointment", booked.Appointment).
		Str("session_id", session.SessionId).
		Msg("appointment session ready")

	return nil
}
