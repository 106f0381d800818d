package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-consult/dto"
	"video-consult/middleware"
	"video-consult/service"
)

const testSecret = "test-secret"

type stubService struct {
	err        error
	caller     service.Caller
	sessionId  string
	key        string
	createReq  dto.CreateSessionRequest
	quickReq   dto.QuickConsultRequest
	ratingReq  dto.RatingRequest
	roomReq    dto.CreateRoomRequest
	statusCall int
}

func (s *stubService) CreateSession(_ context.Context, caller service.Caller, req dto.CreateSessionRequest) (*dto.SessionPayload, error) {
	s.caller, s.createReq = caller, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SessionPayload{SessionId: "s-1", Status: "Waiting"}, nil
}

func (s *stubService) QuickConsult(_ context.Context, caller service.Caller, req dto.QuickConsultRequest) (*dto.SessionPayload, error) {
	s.caller, s.quickReq = caller, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SessionPayload{SessionId: "s-1", SessionType: "Quick Consult"}, nil
}

func (s *stubService) GetJoinInfo(_ context.Context, caller service.Caller, sessionId string, key string) (*dto.JoinInfo, error) {
	s.caller, s.sessionId, s.key = caller, sessionId, key
	if s.err != nil {
		return nil, s.err
	}
	return &dto.JoinInfo{SessionId: sessionId, Token: "tok", Role: "patient"}, nil
}

func (s *stubService) GetSessionStatus(_ context.Context, sessionId string) (*dto.SessionStatus, error) {
	s.statusCall++
	s.sessionId = sessionId
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SessionStatus{SessionId: sessionId, Status: "Active"}, nil
}

func (s *stubService) EndSession(_ context.Context, caller service.Caller, sessionId string) (*dto.SessionStatus, error) {
	s.caller, s.sessionId = caller, sessionId
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SessionStatus{SessionId: sessionId, Status: "Ended"}, nil
}

func (s *stubService) SubmitRating(_ context.Context, caller service.Caller, sessionId string, req dto.RatingRequest) (*dto.RatingResult, error) {
	s.caller, s.sessionId, s.ratingReq = caller, sessionId, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.RatingResult{SessionId: sessionId, Rating: req.Rating, Role: "patient", Forwarded: true}, nil
}

func (s *stubService) CreateRoom(_ context.Context, caller service.Caller, req dto.CreateRoomRequest) (*dto.RoomPayload, error) {
	s.caller, s.roomReq = caller, req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.RoomPayload{RoomName: "consult_abc", RoomURL: "https://test.daily.co/consult_abc"}, nil
}

func newTestRouter(svc service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Identity(testSecret))
	NewHTTPHandler(svc).Register(r)
	return r
}

func bearer(t *testing.T, user string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": user})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func perform(r http.Handler, method, path, auth string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Type, body.Error.Message
}

func TestCreateSessionRoute(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	rec := perform(r, http.MethodPost, "/api/sessions", bearer(t, "pat@clinic.test"), map[string]any{
		"department":       "Nutrition",
		"allow_magic_link": true,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "pat@clinic.test", svc.caller.User)
	assert.Equal(t, dto.CreateSessionRequest{Department: "Nutrition", AllowMagicLink: true}, svc.createReq)

	var payload dto.SessionPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "s-1", payload.SessionId)
}

func TestQuickConsultRoute(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	rec := perform(r, http.MethodPost, "/api/sessions/quick-consult", bearer(t, "pat@clinic.test"), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, svc.quickReq.AllowMagicLink)

	rec = perform(r, http.MethodPost, "/api/sessions/quick-consult", bearer(t, "pat@clinic.test"), map[string]any{
		"department":       "Derm",
		"allow_magic_link": false,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Derm", svc.quickReq.Department)
	require.NotNil(t, svc.quickReq.AllowMagicLink)
	assert.False(t, *svc.quickReq.AllowMagicLink)
}

func TestJoinRoute(t *testing.T) {
	t.Run("Key from query runs as guest", func(t *testing.T) {
		svc := &stubService{}
		r := newTestRouter(svc)

		rec := perform(r, http.MethodPost, "/api/sessions/s-1/join?k=abc", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Guest", svc.caller.User)
		assert.Equal(t, "s-1", svc.sessionId)
		assert.Equal(t, "abc", svc.key)
	})

	t.Run("Key from body", func(t *testing.T) {
		svc := &stubService{}
		r := newTestRouter(svc)

		rec := perform(r, http.MethodPost, "/api/sessions/s-1/join", "", map[string]string{"k": "xyz"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "xyz", svc.key)
	})
}

func TestStatusAndEndRoutes(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	rec := perform(r, http.MethodGet, "/api/sessions/s-9/status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"s-9","status":"Active"}`, rec.Body.String())

	rec = perform(r, http.MethodPost, "/api/sessions/s-9/end", bearer(t, "doc@clinic.test"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc@clinic.test", svc.caller.User)
	assert.JSONEq(t, `{"session_id":"s-9","status":"Ended"}`, rec.Body.String())
}

func TestRatingRoute(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	rec := perform(r, http.MethodPost, "/api/sessions/s-1/rating", bearer(t, "pat@clinic.test"), map[string]any{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	kind, _ := decodeError(t, rec)
	assert.Equal(t, "validation_error", kind)

	rec = perform(r, http.MethodPost, "/api/sessions/s-1/rating", bearer(t, "pat@clinic.test"), map[string]any{"rating": 4, "comment": "fine"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.RatingRequest{Rating: 4, Comment: "fine"}, svc.ratingReq)
}

func TestCreateRoomRoute(t *testing.T) {
	svc := &stubService{}
	r := newTestRouter(svc)

	rec := perform(r, http.MethodPost, "/api/rooms", bearer(t, "doc@clinic.test"), map[string]any{"prefix": "triage", "exp_minutes": 15})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "triage", svc.roomReq.Prefix)
	require.NotNil(t, svc.roomReq.ExpMinutes)
	assert.Equal(t, 15, *svc.roomReq.ExpMinutes)

	rec = perform(r, http.MethodPost, "/api/rooms", bearer(t, "doc@clinic.test"), map[string]any{"prefix": "not/valid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "Login required", err: service.ErrLoginRequired, wantStatus: http.StatusUnauthorized, wantType: "login_required"},
		{name: "Permission denied", err: fmt.Errorf("%w: nope", service.ErrPermissionDenied), wantStatus: http.StatusForbidden, wantType: "permission_denied"},
		{name: "Expired window", err: fmt.Errorf("%w: closed", service.ErrExpiredWindow), wantStatus: http.StatusForbidden, wantType: "expired_window"},
		{name: "Not found", err: fmt.Errorf("%w: session", service.ErrNotFound), wantStatus: http.StatusNotFound, wantType: "not_found"},
		{name: "Validation", err: service.ErrDepartmentAmbiguous, wantStatus: http.StatusBadRequest, wantType: "validation_error"},
		{name: "Remote provider", err: fmt.Errorf("%w: 500", service.ErrRemoteProvider), wantStatus: http.StatusBadGateway, wantType: "remote_provider_error"},
		{name: "Internal", err: fmt.Errorf("database is down"), wantStatus: http.StatusInternalServerError, wantType: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&stubService{err: tt.err})

			rec := perform(r, http.MethodPost, "/api/sessions/s-1/join", bearer(t, "pat@clinic.test"), nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			kind, message := decodeError(t, rec)
			assert.Equal(t, tt.wantType, kind)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal error", message)
			} else {
				assert.Equal(t, tt.err.Error(), message)
			}
		})
	}
}
