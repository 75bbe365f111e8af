package handlers

import (
	"errors"
	"net/http"

	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/chronos-ua/chronos-backend/internal/repository"
	"github.com/chronos-ua/chronos-backend/internal/services"
	"github.com/chronos-ua/chronos-backend/utils"
	"github.com/gin-gonic/gin"
)

// writeServiceError maps service sentinel errors onto HTTP status codes.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NOT_FOUND", "resource not found"))
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, utils.CreateErrorResponse("FORBIDDEN", "you do not have access to this resource"))
	case errors.Is(err, services.ErrAlreadyInvited):
		c.JSON(http.StatusConflict, utils.CreateErrorResponse("ALREADY_INVITED", "this e-mail is already invited"))
	default:
		c.JSON(http.StatusInternalServerError, utils.CreateErrorResponse("INTERNAL_ERROR", err.Error()))
	}
}

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	protected := r.Group("/events", auth)
	protected.POST("", h.Create)
	protected.GET("/:id", h.Get)
	protected.PATCH("/:id", h.Update)
	protected.DELETE("/:id", h.Delete)
	protected.POST("/:id/invite", h.InviteMember)
	protected.POST("/:id/accept-invite", h.AcceptInvite)
}

func (h *EventHandler) Create(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateValidationError(err))
		return
	}

	evt, err := h.events.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(evt))
}

func (h *EventHandler) Get(c *gin.Context) {
	evt, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(evt))
}

func (h *EventHandler) Update(c *gin.Context) {
	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateValidationError(err))
		return
	}

	evt, err := h.events.Update(c.Request.Context(), GetUserID(c), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(evt))
}

func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"deleted": true}))
}

func (h *EventHandler) InviteMember(c *gin.Context) {
	var req models.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateValidationError(err))
		return
	}

	if err := h.events.InviteMember(c.Request.Context(), GetUserID(c), c.Param("id"), &req); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"invited": req.Email}))
}

func (h *EventHandler) AcceptInvite(c *gin.Context) {
	if err := h.events.AcceptInvite(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserEmail(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"accepted": true}))
}
