package handler

import (
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"net/http"
	"video-consult/dto"
	"video-consult/middleware"
	"video-consult/service"
)

type HTTPHandler struct {
	service service.Service
}

func NewHTTPHandler(svc service.Service) *HTTPHandler {
	return &HTTPHandler{service: svc}
}

func (h *HTTPHandler) Register(r gin.IRouter) {
	sessions := r.Group("/api/sessions")
	sessions.POST("", h.CreateSession)
	sessions.POST("/quick-consult", h.QuickConsult)
	sessions.POST("/:id/join", h.GetJoinInfo)
	sessions.GET("/:id/status", h.GetSessionStatus)
	sessions.POST("/:id/rating", h.SubmitRating)
	sessions.POST("/:id/end", h.EndSession)

	r.POST("/api/rooms", h.CreateRoom)
}

func (h *HTTPHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	payload, err := h.service.CreateSession(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payload)
}

func (h *HTTPHandler) QuickConsult(c *gin.Context) {
	var req dto.QuickConsultRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	payload, err := h.service.QuickConsult(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payload)
}

func (h *HTTPHandler) GetJoinInfo(c *gin.Context) {
	var req dto.JoinRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Key == "" {
		if err := bindOptionalJSON(c, &req); err != nil {
			badRequest(c, err)
			return
		}
	}

	info, err := h.service.GetJoinInfo(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req.Key)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *HTTPHandler) GetSessionStatus(c *gin.Context) {
	status, err := h.service.GetSessionStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *HTTPHandler) SubmitRating(c *gin.Context) {
	var req dto.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.SubmitRating(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *HTTPHandler) EndSession(c *gin.Context) {
	status, err := h.service.EndSession(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *HTTPHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, room)
}

// bindOptionalJSON binds a JSON body when one was sent.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(obj)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody("validation_error", err.Error()))
}

func writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	c.JSON(status, errorBody(kind, message))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		return http.StatusUnauthorized, "login_required"
	case errors.Is(err, service.ErrExpiredWindow):
		return http.StatusForbidden, "expired_window"
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrRemoteProvider):
		return http.StatusBadGateway, "remote_provider_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func errorBody(kind, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"type":    kind,
			"message": message,
		},
	}
}
