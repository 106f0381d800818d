package daily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.daily.co/v1"

var (
	ErrRoomNotFound = errors.New("daily room not found")
	ErrProvider     = errors.New("daily request failed")
)

type Config struct {
	APIKey   string
	BaseURL  string
	TokenTTL time.Duration
	RoomTTL  time.Duration
	Timeout  time.Duration
}

type Room struct {
	Name   string     `json:"name"`
	URL    string     `json:"url"`
	Config RoomConfig `json:"config"`
}

type RoomConfig struct {
	Exp int64 `json:"exp,omitempty"`
}

// Expired reports whether the room carries an expiry that has already passed.
func (r *Room) Expired(now time.Time) bool {
	return r.Config.Exp > 0 && r.Config.Exp <= now.Unix()
}

type roomProperties struct {
	Exp               int64 `json:"exp,omitempty"`
	EnableChat        bool  `json:"enable_chat"`
	EnableScreenshare bool  `json:"enable_screenshare"`
	StartVideoOff     bool  `json:"start_video_off"`
	StartAudioOff     bool  `json:"start_audio_off"`
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Properties roomProperties `json:"properties"`
}

type tokenProperties struct {
	RoomName string `json:"room_name"`
	IsOwner  bool   `json:"is_owner"`
	UserID   string `json:"user_id"`
	Exp      int64  `json:"exp"`
}

type createTokenRequest struct {
	Properties tokenProperties `json:"properties"`
}

type createTokenResponse struct {
	Token string `json:"token"`
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing daily api key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 10 * time.Minute
	}
	if cfg.RoomTTL < 0 {
		cfg.RoomTTL = 0
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}, nil
}

// CreateRoom creates a room with the given name. A nil ttl uses the configured
// room expiry, a zero ttl creates a room without expiry. If a room with that
// name already exists it is fetched and returned instead.
func (c *Client) CreateRoom(ctx context.Context, name string, ttl *time.Duration) (*Room, error) {
	expiry := c.cfg.RoomTTL
	if ttl != nil {
		expiry = *ttl
	}

	payload := createRoomRequest{
		Name: name,
		Properties: roomProperties{
			EnableChat:        false,
			EnableScreenshare: true,
			StartVideoOff:     false,
			StartAudioOff:     false,
		},
	}
	if expiry > 0 {
		payload.Properties.Exp = c.now().Add(expiry).Unix()
	}

	status, body, err := c.do(ctx, http.MethodPost, "/rooms", payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusConflict {
		return c.GetRoom(ctx, name)
	}
	if !ok(status) {
		return nil, fmt.Errorf("%w: create room: %d %s", ErrProvider, status, body)
	}

	room := &Room{}
	if err := json.Unmarshal(body, room); err != nil {
		return nil, fmt.Errorf("%w: decode room: %v", ErrProvider, err)
	}
	if room.Name == "" {
		room.Name = name
	}

	return room, nil
}

func (c *Client) GetRoom(ctx context.Context, name string) (*Room, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, name)
	}
	if !ok(status) {
		return nil, fmt.Errorf("%w: get room: %d %s", ErrProvider, status, body)
	}

	room := &Room{}
	if err := json.Unmarshal(body, room); err != nil {
		return nil, fmt.Errorf("%w: decode room: %v", ErrProvider, err)
	}

	return room, nil
}

func (c *Client) CreateMeetingToken(ctx context.Context, room string, isOwner bool, userID string) (string, error) {
	payload := createTokenRequest{
		Properties: tokenProperties{
			RoomName: room,
			IsOwner:  isOwner,
			UserID:   userID,
			Exp:      c.now().Add(c.cfg.TokenTTL).Unix(),
		},
	}

	status, body, err := c.do(ctx, http.MethodPost, "/meeting-tokens", payload)
	if err != nil {
		return "", err
	}
	if !ok(status) {
		return "", fmt.Errorf("%w: create token: %d %s", ErrProvider, status, body)
	}

	var resp createTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode token: %v", ErrProvider, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: token missing in response", ErrProvider)
	}

	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", ErrProvider, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("daily request")

	return resp.StatusCode, body, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
