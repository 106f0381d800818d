package service

import (
	"time"
	"video-consult/constant"
	"video-consult/entities"
)

// Window is the span during which a session may be joined. A zero Opens
// means unbounded in the past, a zero Closes means open-ended.
type Window struct {
	Opens  time.Time
	Closes time.Time
}

func (w Window) Before(now time.Time) bool {
	return !w.Opens.IsZero() && now.Before(w.Opens)
}

func (w Window) After(now time.Time) bool {
	return !w.Closes.IsZero() && now.After(w.Closes)
}

type WindowConfig struct {
	Lead            time.Duration
	Grace           time.Duration
	DefaultDuration time.Duration
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Lead:            constant.WindowLead,
		Grace:           constant.WindowGrace,
		DefaultDuration: constant.DefaultAppointmentSpan,
	}
}

// AccessWindow computes the join window. appointment is nil for quick consults.
func AccessWindow(cfg WindowConfig, session *entities.Session, appointment *entities.PatientAppointment) Window {
	if appointment != nil {
		start := appointment.AppointmentDatetime
		duration := time.Duration(appointment.Duration) * time.Minute
		if duration <= 0 {
			duration = cfg.DefaultDuration
		}
		return Window{
			Opens:  start.Add(-cfg.Lead),
			Closes: start.Add(duration).Add(cfg.Grace),
		}
	}

	if session.EndedAt != nil {
		return Window{Closes: session.EndedAt.Add(cfg.Grace)}
	}

	return Window{}
}
