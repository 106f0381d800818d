package constant

import "time"

type SessionStatus string

const (
	SessionStatusDraft     SessionStatus = "Draft"
	SessionStatusScheduled SessionStatus = "Scheduled"
	SessionStatusWaiting   SessionStatus = "Waiting"
	SessionStatusActive    SessionStatus = "Active"
	SessionStatusEnded     SessionStatus = "Ended"
)

func (s SessionStatus) String() string {
	return string(s)
}

type SessionType string

const (
	SessionTypeScheduled    SessionType = "Scheduled"
	SessionTypeQuickConsult SessionType = "Quick Consult"
)

type Role string

const (
	RolePractitioner Role = "practitioner"
	RolePatient      Role = "patient"
)

const (
	PractitionerStatusActive   = "Active"
	PractitionerStatusDisabled = "Disabled"
)

// GuestUser is the identity of an unauthenticated caller.
const GuestUser = "Guest"

const (
	JoinKeyTTL             = 60 * time.Minute
	WindowLead             = 10 * time.Minute
	WindowGrace            = 60 * time.Minute
	DefaultAppointmentSpan = 30 * time.Minute
)

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
