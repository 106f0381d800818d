package entities

import "time"

type PatientAppointment struct {
	Name                string    `json:"name" gorm:"type:varchar(140);primaryKey"`
	Patient             string    `json:"patient" gorm:"type:varchar(140);index"`
	Practitioner        string    `json:"practitioner" gorm:"type:varchar(140)"`
	Department          string    `json:"department" gorm:"type:varchar(140)"`
	AppointmentDatetime time.Time `json:"appointment_datetime"`
	// Duration in minutes, 0 when not specified.
	Duration     int       `json:"duration"`
	VideoSession string    `json:"video_session" gorm:"type:varchar(140)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (PatientAppointment) TableName() string {
	return "patient_appointments"
}
