package dto

import "time"

type AppointmentBookedMessage struct {
	Appointment    string `json:"appointment"`
	BookedBy       string `json:"bookedBy"`
	AllowMagicLink bool   `json:"allowMagicLink"`
}

type RatingMessage struct {
	SessionId    string    `json:"sessionId"`
	Practitioner string    `json:"practitioner"`
	PatientUser  string    `json:"patientUser"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

type CreateSessionRequest struct {
	PatientAppointment string `json:"patient_appointment"`
	Department         string `json:"department"`
	Practitioner       string `json:"practitioner"`
	PatientUser        string `json:"patient_user"`
	AllowMagicLink     bool   `json:"allow_magic_link"`
}

type QuickConsultRequest struct {
	Department     string `json:"department"`
	PatientUser    string `json:"patient_user"`
	AllowMagicLink *bool  `json:"allow_magic_link"`
}

type JoinRequest struct {
	Key string `json:"k" form:"k"`
}

type RatingRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type CreateRoomRequest struct {
	Prefix     string `json:"prefix" binding:"omitempty,alphanum,max=32"`
	ExpMinutes *int   `json:"exp_minutes" binding:"omitempty,min=0"`
}

type SessionPayload struct {
	SessionId            string     `json:"session_id"`
	SessionType          string     `json:"session_type"`
	Status               string     `json:"status"`
	Department           string     `json:"department"`
	Practitioner         string     `json:"practitioner"`
	RoomName             string     `json:"room_name"`
	RoomURL              string     `json:"room_url"`
	PatientUser          string     `json:"patient_user"`
	BookedBy             string     `json:"booked_by"`
	AllowMagicLink       bool       `json:"allow_magic_link"`
	PatientJoinURL       *string    `json:"patient_join_url"`
	PatientJoinExpiresAt *time.Time `json:"patient_join_expires_at"`
}

type JoinInfo struct {
	SessionId    string `json:"session_id"`
	RoomName     string `json:"room_name"`
	RoomURL      string `json:"room_url"`
	Token        string `json:"token"`
	Role         string `json:"role"`
	DisplayName  string `json:"display_name"`
	Practitioner string `json:"practitioner"`
	PatientUser  string `json:"patient_user"`
}

type SessionStatus struct {
	SessionId string `json:"session_id"`
	Status    string `json:"status"`
}

type RatingResult struct {
	SessionId string `json:"session_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	Role      string `json:"role"`
	Forwarded bool   `json:"forwarded"`
	Warning   string `json:"warning,omitempty"`
}

type RoomPayload struct {
	RoomName string `json:"room_name"`
	RoomURL  string `json:"room_url"`
}
