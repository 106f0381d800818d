package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"video-consult/constant"
	"video-consult/dto"
	"video-consult/entities"
	"video-consult/pkg/daily"
	"video-consult/repository"
)

var baseTime = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type tokenCall struct {
	Room    string
	IsOwner bool
	UserID  string
}

type fakeRooms struct {
	rooms     map[string]*daily.Room
	created   []string
	tokens    []tokenCall
	createErr error
	getErr    error
	tokenErr  error

	// run once, in the middle of the next call, to interleave another request
	onCreate func()
	onToken  func()
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{rooms: map[string]*daily.Room{}}
}

func (f *fakeRooms) CreateRoom(_ context.Context, name string, _ *time.Duration) (*daily.Room, error) {
	if hook := f.onCreate; hook != nil {
		f.onCreate = nil
		hook()
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	room := &daily.Room{Name: name, URL: "https://test.daily.co/" + name}
	f.rooms[name] = room
	f.created = append(f.created, name)
	return room, nil
}

func (f *fakeRooms) GetRoom(_ context.Context, name string) (*daily.Room, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	room, ok := f.rooms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", daily.ErrRoomNotFound, name)
	}
	return room, nil
}

func (f *fakeRooms) CreateMeetingToken(_ context.Context, room string, isOwner bool, userID string) (string, error) {
	if hook := f.onToken; hook != nil {
		f.onToken = nil
		hook()
	}
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	f.tokens = append(f.tokens, tokenCall{Room: room, IsOwner: isOwner, UserID: userID})
	return fmt.Sprintf("token-%d", len(f.tokens)), nil
}

func (f *fakeRooms) lastToken() tokenCall {
	return f.tokens[len(f.tokens)-1]
}

type recordingSink struct {
	messages []dto.RatingMessage
	err      error
}

func (s *recordingSink) Forward(_ context.Context, message dto.RatingMessage) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, message)
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

// seedDirectory creates the healthcare records shared by the service tests.
func seedDirectory(t *testing.T, db *gorm.DB) {
	users := []entities.User{
		{Name: "doc@clinic.test", FullName: "Ada Okafor", Enabled: true},
		{Name: "doc2@clinic.test", FullName: "Ben Carter", Enabled: true},
		{Name: "pat@clinic.test", FullName: "Pat Lee", Enabled: true},
		{Name: "other@clinic.test", FullName: "Olu Other", Enabled: true},
		{Name: "booker@clinic.test", FullName: "Front Desk", Enabled: true},
		{Name: "disabled@clinic.test", FullName: "Gone User", Enabled: false},
	}
	departments := []entities.MedicalDepartment{
		{Name: "Nutrition", DepartmentName: "Nutrition"},
		{Name: "Cardiology", DepartmentName: "Cardiology"},
		{Name: "Cardiothoracic Surgery", DepartmentName: "Cardiothoracic Surgery"},
		{Name: "Dermatology 🩺", DepartmentName: "Dermatology 🩺"},
	}
	practitioners := []entities.HealthcarePractitioner{
		{Name: "HP-001", PractitionerName: "Dr. Ada Okafor", UserID: "doc@clinic.test", Department: "Nutrition", Status: constant.PractitionerStatusActive, UpdatedAt: baseTime.Add(-3 * time.Hour)},
		{Name: "HP-002", PractitionerName: "Dr. Ben Carter", UserID: "doc2@clinic.test", Department: "Cardiology", Status: constant.PractitionerStatusActive, UpdatedAt: baseTime.Add(-3 * time.Hour)},
		{Name: "HP-003", PractitionerName: "Dr. No Login", Department: "Nutrition", Status: constant.PractitionerStatusActive, UpdatedAt: baseTime.Add(-1 * time.Hour)},
		{Name: "HP-004", PractitionerName: "Dr. Retired", UserID: "doc2@clinic.test", Department: "Nutrition", Status: constant.PractitionerStatusDisabled, UpdatedAt: baseTime},
	}
	patients := []entities.Patient{
		{Name: "PAT-001", PatientName: "Pat Lee", UserID: "pat@clinic.test"},
	}
	appointments := []entities.PatientAppointment{
		{Name: "APT-001", Patient: "PAT-001", Practitioner: "HP-001", Department: "Nutrition", AppointmentDatetime: baseTime.Add(2 * time.Hour), Duration: 30},
		{Name: "APT-002", Patient: "PAT-001", Department: "Cardio", AppointmentDatetime: baseTime.Add(time.Hour)},
	}

	require.NoError(t, db.Create(&users).Error)
	require.NoError(t, db.Create(&departments).Error)
	require.NoError(t, db.Create(&practitioners).Error)
	require.NoError(t, db.Create(&patients).Error)
	require.NoError(t, db.Create(&appointments).Error)
}

type testEnv struct {
	db      *gorm.DB
	repo    repository.SessionRepository
	rooms   *fakeRooms
	ratings *recordingSink
	clock   *testClock
	svc     Service
}

func newTestEnv(t *testing.T) *testEnv {
	db := setupTestDB(t)
	seedDirectory(t, db)

	env := &testEnv{
		db:      db,
		repo:    repository.NewRepo(db),
		rooms:   newFakeRooms(),
		ratings: &recordingSink{},
		clock:   &testClock{now: baseTime},
	}
	env.svc = NewService(env.repo, env.rooms, env.ratings, Options{
		BaseURL:    "https://care.example.org/",
		RoomPrefix: "consult",
		Now:        env.clock.Now,
	})

	return env
}

func (e *testEnv) session(t *testing.T, id string) *entities.Session {
	session, err := e.repo.FindSession(context.Background(), id)
	require.NoError(t, err)
	return session
}

var errBoom = errors.New("boom")
