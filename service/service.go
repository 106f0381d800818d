package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"net/url"
	"strings"
	"time"
	"video-consult/constant"
	"video-consult/dto"
	"video-consult/entities"
	"video-consult/pkg/daily"
	"video-consult/repository"
)

// Caller is the identity a request runs as. An empty user or "Guest" is anonymous.
type Caller struct {
	User string
}

func (c Caller) IsGuest() bool {
	return c.User == "" || c.User == constant.GuestUser
}

type RoomProvider interface {
	CreateRoom(ctx context.Context, name string, ttl *time.Duration) (*daily.Room, error)
	GetRoom(ctx context.Context, name string) (*daily.Room, error)
	CreateMeetingToken(ctx context.Context, room string, isOwner bool, userID string) (string, error)
}

type Options struct {
	BaseURL           string
	DefaultDepartment string
	RoomPrefix        string
	JoinKeyTTL        time.Duration
	Window            WindowConfig
	Now               func() time.Time
}

type Service interface {
	CreateSession(ctx context.Context, caller Caller, req dto.CreateSessionRequest) (*dto.SessionPayload, error)
	QuickConsult(ctx context.Context, caller Caller, req dto.QuickConsultRequest) (*dto.SessionPayload, error)
	GetJoinInfo(ctx context.Context, caller Caller, sessionId string, key string) (*dto.JoinInfo, error)
	GetSessionStatus(ctx context.Context, sessionId string) (*dto.SessionStatus, error)
	EndSession(ctx context.Context, caller Caller, sessionId string) (*dto.SessionStatus, error)
	SubmitRating(ctx context.Context, caller Caller, sessionId string, req dto.RatingRequest) (*dto.RatingResult, error)
	CreateRoom(ctx context.Context, caller Caller, req dto.CreateRoomRequest) (*dto.RoomPayload, error)
}

type service struct {
	repo          repository.SessionRepository
	rooms         RoomProvider
	ratings       RatingSink
	departments   DepartmentResolver
	practitioners PractitionerRouter
	opts          Options
}

func NewService(repo repository.SessionRepository, rooms RoomProvider, ratings RatingSink, opts Options) Service {
	if opts.RoomPrefix == "" {
		opts.RoomPrefix = "consult"
	}
	if opts.JoinKeyTTL <= 0 {
		opts.JoinKeyTTL = constant.JoinKeyTTL
	}
	if opts.Window == (WindowConfig{}) {
		opts.Window = DefaultWindowConfig()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if ratings == nil {
		ratings = NoopRatingSink{}
	}

	return &service{
		repo:          repo,
		rooms:         rooms,
		ratings:       ratings,
		departments:   NewDepartmentResolver(repo),
		practitioners: NewPractitionerRouter(repo),
		opts:          opts,
	}
}

func (s *service) CreateSession(ctx context.Context, caller Caller, req dto.CreateSessionRequest) (*dto.SessionPayload, error) {
	if caller.IsGuest() {
		return nil, ErrLoginRequired
	}

	var appointment *entities.PatientAppointment
	if req.PatientAppointment != "" {
		existing, record, err := s.findAppointmentSession(ctx, req.PatientAppointment)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			zerolog.Ctx(ctx).Info().
				Str("session_id", existing.Name).
				Str("appointment", req.PatientAppointment).
				Msg("appointment already has a session")
			return s.payloadFor(ctx, existing, caller)
		}
		appointment = record
	}

	departmentText := req.Department
	practitioner := req.Practitioner
	patient := ""
	if appointment != nil {
		if appointment.Department != "" {
			departmentText = appointment.Department
		}
		if practitioner == "" {
			practitioner = appointment.Practitioner
		}
		patient = appointment.Patient
	}
	if departmentText == "" {
		departmentText = s.opts.DefaultDepartment
	}

	department, err := s.departments.Resolve(ctx, departmentText)
	if err != nil {
		return nil, err
	}
	if department == "" {
		return nil, fmt.Errorf("%w: department is required", ErrValidation)
	}

	if practitioner != "" {
		if _, err := s.repo.FindPractitioner(ctx, practitioner); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: unknown practitioner %q", ErrValidation, practitioner)
			}
			return nil, err
		}
	} else {
		practitioner, err = s.practitioners.Pick(ctx, department)
		if err != nil {
			return nil, err
		}
	}

	patientUser, err := s.resolvePatientUser(ctx, caller, patient, req.PatientUser)
	if err != nil {
		return nil, err
	}
	if patient == "" {
		if record, err := s.repo.FindPatientByUser(ctx, patientUser); err == nil {
			patient = record.Name
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	roomName, err := newRoomName(s.opts.RoomPrefix)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.CreateRoom(ctx, roomName, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("room", roomName).Msg("failed to create room")
		return nil, fmt.Errorf("%w: %w", ErrRemoteProvider, err)
	}
	if room.Name != "" {
		roomName = room.Name
	}

	sessionType := constant.SessionTypeQuickConsult
	var appointmentRef *string
	if appointment != nil {
		sessionType = constant.SessionTypeScheduled
		appointmentRef = &appointment.Name
	}

	session := &entities.Session{
		Name:               uuid.NewString(),
		SessionType:        sessionType,
		Status:             constant.SessionStatusWaiting,
		Department:         department,
		Practitioner:       practitioner,
		Patient:            patient,
		PatientUser:        patientUser,
		BookedBy:           caller.User,
		AllowMagicLink:     req.AllowMagicLink,
		DailyRoomName:      roomName,
		DailyRoomURL:       room.URL,
		PatientAppointment: appointmentRef,
	}

	if req.AllowMagicLink {
		key, err := newJoinKey()
		if err != nil {
			return nil, err
		}
		expires := s.opts.Now().Add(s.opts.JoinKeyTTL)
		session.PatientJoinKey = &key
		session.PatientJoinKeyExpiresAt = &expires
	}

	err = s.repo.Transaction(ctx, func(tx repository.SessionRepository) error {
		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}
		if appointment != nil {
			return tx.LinkAppointmentSession(ctx, appointment.Name, session.Name)
		}
		return nil
	})
	if err != nil {
		if appointment != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			// another booking for the same appointment won the insert
			existing, _, findErr := s.findAppointmentSession(ctx, appointment.Name)
			if findErr == nil && existing != nil {
				zerolog.Ctx(ctx).Warn().
					Str("session_id", existing.Name).
					Str("appointment", appointment.Name).
					Str("unused_room", roomName).
					Msg("appointment booked concurrently")
				return s.payloadFor(ctx, existing, caller)
			}
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to save session")
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("session_id", session.Name).
		Str("session_type", string(session.SessionType)).
		Str("department", session.Department).
		Str("practitioner", session.Practitioner).
		Bool("magic_link", session.AllowMagicLink).
		Msg("session created")

	return s.payload(session), nil
}

func (s *service) QuickConsult(ctx context.Context, caller Caller, req dto.QuickConsultRequest) (*dto.SessionPayload, error) {
	allowMagicLink := true
	if req.AllowMagicLink != nil {
		allowMagicLink = *req.AllowMagicLink
	}

	return s.CreateSession(ctx, caller, dto.CreateSessionRequest{
		Department:     req.Department,
		PatientUser:    req.PatientUser,
		AllowMagicLink: allowMagicLink,
	})
}

func (s *service) GetJoinInfo(ctx context.Context, caller Caller, sessionId string, key string) (*dto.JoinInfo, error) {
	session, err := s.findSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if session.DailyRoomName == "" {
		return nil, fmt.Errorf("%w: session has no video room", ErrValidation)
	}
	if session.PatientUser == "" {
		return nil, fmt.Errorf("%w: session has no patient user", ErrValidation)
	}

	now := s.opts.Now()
	practitioner, err := s.findPractitioner(ctx, session.Practitioner)
	if err != nil {
		return nil, err
	}

	role := constant.RolePatient
	identity := ""
	switch {
	case !caller.IsGuest() && practitioner != nil && practitioner.UserID != "" && practitioner.UserID == caller.User:
		role = constant.RolePractitioner
		identity = caller.User
	case caller.IsGuest():
		if key == "" {
			return nil, ErrLoginRequired
		}
		if err := s.consumeJoinKey(ctx, session, key, now); err != nil {
			return nil, err
		}
		identity = session.PatientUser
	default:
		if err := s.authorizePatient(ctx, session, caller); err != nil {
			return nil, err
		}
		identity = caller.User
	}

	if err := s.checkWindow(ctx, session, now); err != nil {
		return nil, err
	}

	if err := s.ensureRoom(ctx, session, now); err != nil {
		return nil, err
	}

	isOwner := role == constant.RolePractitioner
	token, err := s.rooms.CreateMeetingToken(ctx, session.DailyRoomName, isOwner, identity)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", session.Name).Msg("failed to create meeting token")
		return nil, fmt.Errorf("%w: %w", ErrRemoteProvider, err)
	}

	// Draft, Scheduled and Waiting all collapse to Active; an Ended session stays Ended
	started, err := s.repo.StartSession(ctx, session.Name, now)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", session.Name).Msg("failed to start session")
		return nil, err
	}
	if started {
		session.Status = constant.SessionStatusActive
		if session.StartedAt == nil {
			session.StartedAt = &now
		}
	}

	displayName, err := s.displayName(ctx, role, identity, session, practitioner)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("session_id", session.Name).
		Str("role", string(role)).
		Str("status", session.Status.String()).
		Msg("join info issued")

	return &dto.JoinInfo{
		SessionId:    session.Name,
		RoomName:     session.DailyRoomName,
		RoomURL:      session.DailyRoomURL,
		Token:        token,
		Role:         string(role),
		DisplayName:  displayName,
		Practitioner: session.Practitioner,
		PatientUser:  session.PatientUser,
	}, nil
}

func (s *service) GetSessionStatus(ctx context.Context, sessionId string) (*dto.SessionStatus, error) {
	session, err := s.findSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	return &dto.SessionStatus{SessionId: session.Name, Status: session.Status.String()}, nil
}

func (s *service) EndSession(ctx context.Context, caller Caller, sessionId string) (*dto.SessionStatus, error) {
	if caller.IsGuest() {
		return nil, ErrLoginRequired
	}

	session, err := s.findSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	isPractitioner, err := s.isSessionPractitioner(ctx, session, caller)
	if err != nil {
		return nil, err
	}
	if !isPractitioner {
		return nil, fmt.Errorf("%w: only the session practitioner can end it", ErrPermissionDenied)
	}

	if !session.IsEnded() {
		now := s.opts.Now()
		if err := s.repo.EndSession(ctx, session.Name, now); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("session_id", session.Name).Msg("failed to end session")
			return nil, err
		}
		session.MarkEnded(now)
		zerolog.Ctx(ctx).Info().Str("session_id", session.Name).Msg("session ended")
	}

	return &dto.SessionStatus{SessionId: session.Name, Status: session.Status.String()}, nil
}

func (s *service) SubmitRating(ctx context.Context, caller Caller, sessionId string, req dto.RatingRequest) (*dto.RatingResult, error) {
	if caller.IsGuest() {
		return nil, ErrLoginRequired
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	session, err := s.findSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	isPractitioner, err := s.isSessionPractitioner(ctx, session, caller)
	if err != nil {
		return nil, err
	}

	rating := req.Rating
	result := &dto.RatingResult{
		SessionId: session.Name,
		Rating:    rating,
		Comment:   req.Comment,
	}

	var role constant.Role
	switch {
	case isPractitioner:
		role = constant.RolePractitioner
	case session.PatientUser == caller.User:
		role = constant.RolePatient
	default:
		return nil, fmt.Errorf("%w: not a participant of this session", ErrPermissionDenied)
	}
	result.Role = string(role)

	if err := s.repo.SaveRating(ctx, session.Name, role, rating, req.Comment); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", session.Name).Msg("failed to save rating")
		return nil, err
	}

	if isPractitioner {
		return result, nil
	}

	if session.Practitioner == "" {
		result.Warning = "rating saved, but the session has no practitioner to rate"
		return result, nil
	}

	err = s.ratings.Forward(ctx, dto.RatingMessage{
		SessionId:    session.Name,
		Practitioner: session.Practitioner,
		PatientUser:  session.PatientUser,
		Rating:       rating,
		Comment:      req.Comment,
		SubmittedAt:  s.opts.Now(),
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", session.Name).Msg("failed to forward rating")
		result.Warning = "rating saved, but it could not be forwarded to the practitioner rating service"
		return result, nil
	}
	result.Forwarded = true

	return result, nil
}

func (s *service) CreateRoom(ctx context.Context, caller Caller, req dto.CreateRoomRequest) (*dto.RoomPayload, error) {
	if caller.IsGuest() {
		return nil, ErrLoginRequired
	}

	prefix := strings.ToLower(req.Prefix)
	if prefix == "" {
		prefix = s.opts.RoomPrefix
	}
	name, err := newRoomName(prefix)
	if err != nil {
		return nil, err
	}

	var ttl *time.Duration
	if req.ExpMinutes != nil {
		d := time.Duration(*req.ExpMinutes) * time.Minute
		ttl = &d
	}

	room, err := s.rooms.CreateRoom(ctx, name, ttl)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("room", name).Msg("failed to create room")
		return nil, fmt.Errorf("%w: %w", ErrRemoteProvider, err)
	}
	if room.Name != "" {
		name = room.Name
	}

	return &dto.RoomPayload{RoomName: name, RoomURL: room.URL}, nil
}

// findAppointmentSession loads the appointment and the session already booked
// for it, found by session back-reference first and then by the appointment's
// own link. The session is nil when none exists yet.
func (s *service) findAppointmentSession(ctx context.Context, name string) (*entities.Session, *entities.PatientAppointment, error) {
	appointment, err := s.repo.FindAppointment(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: appointment %q", ErrNotFound, name)
		}
		return nil, nil, err
	}

	session, err := s.repo.FindSessionByAppointment(ctx, name)
	if err == nil {
		return session, appointment, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if appointment.VideoSession == "" {
		return nil, appointment, nil
	}

	session, err = s.repo.FindSession(ctx, appointment.VideoSession)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment, nil
		}
		return nil, nil, err
	}

	return session, appointment, nil
}

// resolvePatientUser picks the patient identity: the patient's linked user,
// then the explicit argument, then the caller.
func (s *service) resolvePatientUser(ctx context.Context, caller Caller, patient string, explicit string) (string, error) {
	user := ""
	if patient != "" {
		record, err := s.repo.FindPatient(ctx, patient)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", fmt.Errorf("%w: unknown patient %q", ErrValidation, patient)
			}
			return "", err
		}
		user = record.UserID
	}
	if user == "" {
		user = explicit
	}
	if user == "" {
		user = caller.User
	}

	if user == "" || user == constant.GuestUser {
		return "", fmt.Errorf("%w: patient user is required", ErrValidation)
	}
	record, err := s.repo.FindUser(ctx, user)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %q is not a registered user", ErrValidation, user)
		}
		return "", err
	}
	if !record.Enabled {
		return "", fmt.Errorf("%w: user %q is disabled", ErrValidation, user)
	}

	return record.Name, nil
}

// consumeJoinKey validates a magic-link key and deletes it before returning,
// so a key can be spent once only.
func (s *service) consumeJoinKey(ctx context.Context, session *entities.Session, key string, now time.Time) error {
	if !session.AllowMagicLink {
		return fmt.Errorf("%w: magic link access is disabled for this session", ErrPermissionDenied)
	}
	if session.PatientJoinKey == nil {
		return fmt.Errorf("%w: no active join link for this session", ErrPermissionDenied)
	}
	if subtle.ConstantTimeCompare([]byte(*session.PatientJoinKey), []byte(key)) != 1 {
		return fmt.Errorf("%w: invalid join link", ErrPermissionDenied)
	}
	if session.PatientJoinKeyExpiresAt == nil || now.After(*session.PatientJoinKeyExpiresAt) {
		return fmt.Errorf("%w: join link has expired", ErrPermissionDenied)
	}

	consumed, err := s.repo.ConsumeJoinKey(ctx, session.Name, key)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", session.Name).Msg("failed to consume join key")
		return err
	}
	if !consumed {
		return fmt.Errorf("%w: join link has already been used", ErrPermissionDenied)
	}
	session.PatientJoinKey = nil
	session.PatientJoinKeyExpiresAt = nil

	zerolog.Ctx(ctx).Info().Str("session_id", session.Name).Msg("join key consumed")
	return nil
}

func (s *service) authorizePatient(ctx context.Context, session *entities.Session, caller Caller) error {
	if session.Patient != "" {
		patient, err := s.repo.FindPatient(ctx, session.Patient)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if patient != nil && patient.UserID != "" && patient.UserID != caller.User {
			return fmt.Errorf("%w: session belongs to another patient", ErrPermissionDenied)
		}
	}
	if session.PatientUser != caller.User {
		return fmt.Errorf("%w: session belongs to another patient", ErrPermissionDenied)
	}

	return nil
}

// checkWindow denies access outside the window. A session found past its
// close bound is ended and saved before the error is returned.
func (s *service) checkWindow(ctx context.Context, session *entities.Session, now time.Time) error {
	var appointment *entities.PatientAppointment
	if session.IsScheduled() {
		record, err := s.repo.FindAppointment(ctx, *session.PatientAppointment)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: appointment %q", ErrNotFound, *session.PatientAppointment)
			}
			return err
		}
		appointment = record
	}

	window := AccessWindow(s.opts.Window, session, appointment)
	if window.Before(now) {
		return fmt.Errorf("%w: session opens at %s", ErrExpiredWindow, window.Opens.UTC().Format(time.RFC3339))
	}
	if window.After(now) {
		if !session.IsEnded() {
			if err := s.repo.EndSession(ctx, session.Name, now); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("session_id", session.Name).Msg("failed to expire session")
				return err
			}
			session.MarkEnded(now)
			zerolog.Ctx(ctx).Info().Str("session_id", session.Name).Msg("session expired")
		}
		return fmt.Errorf("%w: session closed at %s", ErrExpiredWindow, window.Closes.UTC().Format(time.RFC3339))
	}
	if session.IsEnded() && session.EndedAt != nil && now.After(session.EndedAt.Add(s.opts.Window.Grace)) {
		return fmt.Errorf("%w: session ended at %s", ErrExpiredWindow, session.EndedAt.UTC().Format(time.RFC3339))
	}

	return nil
}

// ensureRoom replaces a room the provider no longer serves. Rooms expire on
// the provider side independently of the session.
func (s *service) ensureRoom(ctx context.Context, session *entities.Session, now time.Time) error {
	room, err := s.rooms.GetRoom(ctx, session.DailyRoomName)
	if err != nil && !errors.Is(err, daily.ErrRoomNotFound) {
		zerolog.Ctx(ctx).Error().Err(err).Str("room", session.DailyRoomName).Msg("failed to get room")
		return fmt.Errorf("%w: %w", ErrRemoteProvider, err)
	}
	if err == nil && room.URL != "" && !room.Expired(now) {
		if room.URL != session.DailyRoomURL {
			if err := s.repo.UpdateRoom(ctx, session.Name, session.DailyRoomName, room.URL); err != nil {
				return err
			}
			session.DailyRoomURL = room.URL
		}
		return nil
	}

	if session.IsEnded() {
		return fmt.Errorf("%w: session has ended and its room is gone", ErrExpiredWindow)
	}

	name, err := newRoomName(s.opts.RoomPrefix)
	if err != nil {
		return err
	}
	created, err := s.rooms.CreateRoom(ctx, name, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("room", name).Msg("failed to recreate room")
		return fmt.Errorf("%w: %w", ErrRemoteProvider, err)
	}
	if created.Name != "" {
		name = created.Name
	}

	if err := s.repo.UpdateRoom(ctx, session.Name, name, created.URL); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", session.Name).Msg("failed to save room binding")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("session_id", session.Name).
		Str("old_room", session.DailyRoomName).
		Str("room", name).
		Msg("room recreated")
	session.DailyRoomName = name
	session.DailyRoomURL = created.URL

	return nil
}

func (s *service) displayName(ctx context.Context, role constant.Role, identity string, session *entities.Session, practitioner *entities.HealthcarePractitioner) (string, error) {
	if role == constant.RolePractitioner && practitioner != nil && practitioner.PractitionerName != "" {
		return practitioner.PractitionerName, nil
	}
	if role == constant.RolePatient && session.Patient != "" {
		patient, err := s.repo.FindPatient(ctx, session.Patient)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		if patient != nil && patient.PatientName != "" {
			return patient.PatientName, nil
		}
	}

	user, err := s.repo.FindUser(ctx, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return identity, nil
		}
		return "", err
	}
	if user.FullName != "" {
		return user.FullName, nil
	}

	return identity, nil
}

func (s *service) isSessionPractitioner(ctx context.Context, session *entities.Session, caller Caller) (bool, error) {
	practitioner, err := s.findPractitioner(ctx, session.Practitioner)
	if err != nil {
		return false, err
	}

	return practitioner != nil && practitioner.UserID != "" && practitioner.UserID == caller.User, nil
}

func (s *service) findSession(ctx context.Context, sessionId string) (*entities.Session, error) {
	session, err := s.repo.FindSession(ctx, sessionId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session %q", ErrNotFound, sessionId)
		}
		return nil, err
	}

	return session, nil
}

func (s *service) findPractitioner(ctx context.Context, name string) (*entities.HealthcarePractitioner, error) {
	if name == "" {
		return nil, nil
	}
	practitioner, err := s.repo.FindPractitioner(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return practitioner, nil
}

// payloadFor leaves out the join link unless the caller booked the session,
// is its patient, or is its practitioner.
func (s *service) payloadFor(ctx context.Context, session *entities.Session, caller Caller) (*dto.SessionPayload, error) {
	payload := s.payload(session)
	if caller.User == session.BookedBy || caller.User == session.PatientUser {
		return payload, nil
	}

	isPractitioner, err := s.isSessionPractitioner(ctx, session, caller)
	if err != nil {
		return nil, err
	}
	if !isPractitioner {
		payload.PatientJoinURL = nil
		payload.PatientJoinExpiresAt = nil
	}

	return payload, nil
}

func (s *service) payload(session *entities.Session) *dto.SessionPayload {
	payload := &dto.SessionPayload{
		SessionId:      session.Name,
		SessionType:    string(session.SessionType),
		Status:         session.Status.String(),
		Department:     session.Department,
		Practitioner:   session.Practitioner,
		RoomName:       session.DailyRoomName,
		RoomURL:        session.DailyRoomURL,
		PatientUser:    session.PatientUser,
		BookedBy:       session.BookedBy,
		AllowMagicLink: session.AllowMagicLink,
	}

	if session.PatientJoinKey != nil && session.PatientJoinKeyExpiresAt != nil &&
		s.opts.Now().Before(*session.PatientJoinKeyExpiresAt) {
		joinURL := fmt.Sprintf("%s/video/%s?k=%s",
			strings.TrimRight(s.opts.BaseURL, "/"),
			url.PathEscape(session.Name),
			url.QueryEscape(*session.PatientJoinKey))
		payload.PatientJoinURL = &joinURL
		payload.PatientJoinExpiresAt = session.PatientJoinKeyExpiresAt
	}

	return payload
}

func newRoomName(prefix string) (string, error) {
	token, err := randomToken(16)
	if err != nil {
		return "", err
	}
	token = strings.NewReplacer("-", "", "_", "").Replace(token)

	return strings.ToLower(prefix + "_" + token), nil
}

func newJoinKey() (string, error) {
	return randomToken(32)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
