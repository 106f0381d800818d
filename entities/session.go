package entities

import (
	"time"
	"video-consult/constant"
)

type Session struct {
	Name                    string                 `json:"name" gorm:"type:varchar(140);primaryKey"`
	SessionType             constant.SessionType   `json:"session_type" gorm:"type:varchar(20);not null"`
	Status                  constant.SessionStatus `json:"status" gorm:"type:varchar(20);not null;default:'Waiting';index:idx_vcs_status"`
	Department              string                 `json:"department" gorm:"type:varchar(140);not null"`
	Practitioner            string                 `json:"practitioner" gorm:"type:varchar(140);index:idx_vcs_practitioner"`
	Patient                 string                 `json:"patient" gorm:"type:varchar(140)"`
	PatientUser             string                 `json:"patient_user" gorm:"type:varchar(140);not null;index:idx_vcs_patient_user"`
	BookedBy                string                 `json:"booked_by" gorm:"type:varchar(140)"`
	AllowMagicLink          bool                   `json:"allow_magic_link" gorm:"not null;default:false"`
	PatientJoinKey          *string                `json:"-" gorm:"type:varchar(64)"`
	PatientJoinKeyExpiresAt *time.Time             `json:"-"`
	DailyRoomName           string                 `json:"daily_room_name" gorm:"type:varchar(140)"`
	DailyRoomURL            string                 `json:"daily_room_url" gorm:"type:varchar(500)"`
	StartedAt               *time.Time             `json:"started_at"`
	EndedAt                 *time.Time             `json:"ended_at"`
	PatientAppointment      *string                `json:"patient_appointment" gorm:"type:varchar(140);uniqueIndex:unique_vcs_appointment"`

	PatientRating       *int   `json:"patient_rating"`
	PatientComment      string `json:"patient_comment" gorm:"type:text"`
	PractitionerRating  *int   `json:"practitioner_rating"`
	PractitionerComment string `json:"practitioner_comment" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "video_consultation_sessions"
}

func (s *Session) IsScheduled() bool {
	return s.PatientAppointment != nil && *s.PatientAppointment != ""
}

func (s *Session) IsEnded() bool {
	return s.Status == constant.SessionStatusEnded
}

// MarkEnded moves the session to Ended, recording ended_at only the first time.
func (s *Session) MarkEnded(now time.Time) {
	s.Status = constant.SessionStatusEnded
	if s.EndedAt == nil {
		s.EndedAt = &now
	}
}
