package repository

import (
	"context"
	"database/sql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"time"
	"video-consult/constant"
	"video-consult/entities"
)

type SessionRepository interface {
	Transaction(ctx context.Context, callback func(repo SessionRepository) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB

	FindSession(ctx context.Context, name string) (*entities.Session, error)
	FindSessionByAppointment(ctx context.Context, appointment string) (*entities.Session, error)
	CreateSession(ctx context.Context, session *entities.Session) error
	StartSession(ctx context.Context, name string, now time.Time) (bool, error)
	EndSession(ctx context.Context, name string, now time.Time) error
	UpdateRoom(ctx context.Context, name string, roomName string, roomURL string) error
	SaveRating(ctx context.Context, name string, role constant.Role, rating int, comment string) error
	ConsumeJoinKey(ctx context.Context, name string, key string) (bool, error)

	FindAppointment(ctx context.Context, name string) (*entities.PatientAppointment, error)
	LinkAppointmentSession(ctx context.Context, appointment string, session string) error
	FindUser(ctx context.Context, name string) (*entities.User, error)
	FindPatient(ctx context.Context, name string) (*entities.Patient, error)
	FindPatientByUser(ctx context.Context, user string) (*entities.Patient, error)
	FindPractitioner(ctx context.Context, name string) (*entities.HealthcarePractitioner, error)
	ListActivePractitioners(ctx context.Context, department string) ([]*entities.HealthcarePractitioner, error)
	FindDepartment(ctx context.Context, name string) (*entities.MedicalDepartment, error)
	ListDepartmentNames(ctx context.Context) ([]string, error)
}

type repo struct {
	db *gorm.DB
}

// Open wraps an already opened postgres connection pool with gorm.
func Open(db *sql.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger:         logger.Default.LogMode(logger.Info),
			TranslateError: true,
		},
	)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(entities.All()...)
}

func NewRepo(db *gorm.DB) SessionRepository {
	return &repo{
		db: db,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Transaction(ctx context.Context, callback func(repo SessionRepository) error, opts ...*sql.TxOptions) error {
	return r.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(&repo{db: tx})
	}, opts...)
}

func (r *repo) FindSession(ctx context.Context, name string) (*entities.Session, error) {
	session := &entities.Session{}
	err := r.GetDB().WithContext(ctx).First(session, "name = ?", name).Error
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *repo) FindSessionByAppointment(ctx context.Context, appointment string) (*entities.Session, error) {
	session := &entities.Session{}
	err := r.GetDB().WithContext(ctx).First(session, "patient_appointment = ?", appointment).Error
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *repo) CreateSession(ctx context.Context, session *entities.Session) error {
	return r.GetDB().WithContext(ctx).Create(session).Error
}

// StartSession moves a session that has not started yet to Active. started_at
// is only set the first time. It reports whether the status changed.
func (r *repo) StartSession(ctx context.Context, name string, now time.Time) (bool, error) {
	result := r.GetDB().WithContext(ctx).
		Model(&entities.Session{}).
		Where("name = ? AND status IN ?", name, []string{
			constant.SessionStatusDraft.String(),
			constant.SessionStatusScheduled.String(),
			constant.SessionStatusWaiting.String(),
		}).
		Updates(map[string]interface{}{
			"status":     constant.SessionStatusActive.String(),
			"started_at": gorm.Expr("COALESCE(started_at, ?)", now),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// EndSession moves the session to Ended, keeping the first ended_at.
func (r *repo) EndSession(ctx context.Context, name string, now time.Time) error {
	return r.GetDB().WithContext(ctx).
		Model(&entities.Session{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"status":   constant.SessionStatusEnded.String(),
			"ended_at": gorm.Expr("COALESCE(ended_at, ?)", now),
		}).Error
}

func (r *repo) UpdateRoom(ctx context.Context, name string, roomName string, roomURL string) error {
	return r.GetDB().WithContext(ctx).
		Model(&entities.Session{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"daily_room_name": roomName,
			"daily_room_url":  roomURL,
		}).Error
}

func (r *repo) SaveRating(ctx context.Context, name string, role constant.Role, rating int, comment string) error {
	columns := map[string]interface{}{
		"patient_rating":  rating,
		"patient_comment": comment,
	}
	if role == constant.RolePractitioner {
		columns = map[string]interface{}{
			"practitioner_rating":  rating,
			"practitioner_comment": comment,
		}
	}

	return r.GetDB().WithContext(ctx).
		Model(&entities.Session{}).
		Where("name = ?", name).
		Updates(columns).Error
}

// ConsumeJoinKey clears the stored join key only if it still equals key.
// It reports whether this call was the one that removed it.
func (r *repo) ConsumeJoinKey(ctx context.Context, name string, key string) (bool, error) {
	result := r.GetDB().WithContext(ctx).
		Model(&entities.Session{}).
		Where("name = ? AND patient_join_key = ?", name, key).
		Updates(map[string]interface{}{
			"patient_join_key":            nil,
			"patient_join_key_expires_at": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *repo) FindAppointment(ctx context.Context, name string) (*entities.PatientAppointment, error) {
	appointment := &entities.PatientAppointment{}
	err := r.GetDB().WithContext(ctx).First(appointment, "name = ?", name).Error
	if err != nil {
		return nil, err
	}

	return appointment, nil
}

func (r *repo) LinkAppointmentSession(ctx context.Context, appointment string, session string) error {
	return r.GetDB().WithContext(ctx).
		Model(&entities.PatientAppointment{}).
		Where("name = ?", appointment).
		Update("video_session", session).Error
}

func (r *repo) FindUser(ctx context.Context, name string) (*entities.User, error) {
	user := &entities.User{}
	err := r.GetDB().WithContext(ctx).First(user, "name = ?", name).Error
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *repo) FindPatient(ctx context.Context, name string) (*entities.Patient, error) {
	patient := &entities.Patient{}
	err := r.GetDB().WithContext(ctx).First(patient, "name = ?", name).Error
	if err != nil {
		return nil, err
	}

	return patient, nil
}

func (r *repo) FindPatientByUser(ctx context.Context, user string) (*entities.Patient, error) {
	patient := &entities.Patient{}
	err := r.GetDB().WithContext(ctx).Order("updated_at DESC").First(patient, "user_id = ?", user).Error
	if err != nil {
		return nil, err
	}

	return patient, nil
}

func (r *repo) FindPractitioner(ctx context.Context, name string) (*entities.HealthcarePractitioner, error) {
	practitioner := &entities.HealthcarePractitioner{}
	err := r.GetDB().WithContext(ctx).First(practitioner, "name = ?", name).Error
	if err != nil {
		return nil, err
	}

	return practitioner, nil
}

func (r *repo) ListActivePractitioners(ctx context.Context, department string) ([]*entities.HealthcarePractitioner, error) {
	var practitioners []*entities.HealthcarePractitioner
	err := r.GetDB().WithContext(ctx).
		Where("status = ? AND department = ?", constant.PractitionerStatusActive, department).
		Order("updated_at DESC").
		Limit(50).
		Find(&practitioners).Error
	if err != nil {
		return nil, err
	}

	return practitioners, nil
}

func (r *repo) FindDepartment(ctx context.Context, name string) (*entities.MedicalDepartment, error) {
	department := &entities.MedicalDepartment{}
	err := r.GetDB().WithContext(ctx).First(department, "name = ?", name).Error
	if err != nil {
		return nil, err
	}

	return department, nil
}

func (r *repo) ListDepartmentNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.GetDB().WithContext(ctx).Model(&entities.MedicalDepartment{}).Order("name ASC").Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}

	return names, nil
}
