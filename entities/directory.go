package entities

import "time"

type User struct {
	Name      string    `json:"name" gorm:"type:varchar(140);primaryKey"`
	FullName  string    `json:"full_name" gorm:"type:varchar(255)"`
	Enabled   bool      `json:"enabled" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

type MedicalDepartment struct {
	Name           string    `json:"name" gorm:"type:varchar(140);primaryKey"`
	DepartmentName string    `json:"department_name" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (MedicalDepartment) TableName() string {
	return "medical_departments"
}

type HealthcarePractitioner struct {
	Name             string    `json:"name" gorm:"type:varchar(140);primaryKey"`
	PractitionerName string    `json:"practitioner_name" gorm:"type:varchar(255)"`
	UserID           string    `json:"user_id" gorm:"type:varchar(140);index"`
	Department       string    `json:"department" gorm:"type:varchar(140);index:idx_practitioner_department"`
	Status           string    `json:"status" gorm:"type:varchar(20);not null;default:'Active'"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (HealthcarePractitioner) TableName() string {
	return "healthcare_practitioners"
}

type Patient struct {
	Name        string    `json:"name" gorm:"type:varchar(140);primaryKey"`
	PatientName string    `json:"patient_name" gorm:"type:varchar(255)"`
	UserID      string    `json:"user_id" gorm:"type:varchar(140);index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// All returns every model owned by this service, in migration order.
func All() []any {
	return []any{
		&User{},
		&MedicalDepartment{},
		&HealthcarePractitioner{},
		&Patient{},
		&PatientAppointment{},
		&Session{},
	}
}
