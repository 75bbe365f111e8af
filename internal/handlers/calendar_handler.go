package handlers

import (
	"net/http"

	"github.com/chronos-ua/chronos-backend/internal/models"
	"github.com/chronos-ua/chronos-backend/internal/services"
	"github.com/chronos-ua/chronos-backend/utils"
	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	calendars *services.CalendarService
}

func NewCalendarHandler(calendars *services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendars: calendars}
}

func (h *CalendarHandler) RegisterRoutes(r *gin.RouterGroup, auth gin.HandlerFunc) {
	protected := r.Group("/calendars", auth)
	protected.POST("", h.Create)
	protected.GET("/:id", h.Get)
	protected.POST("/:id/invite", h.InviteMember)
	protected.POST("/:id/accept-invite", h.AcceptInvite)
}

func (h *CalendarHandler) Create(c *gin.Context) {
	var req models.CreateCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateValidationError(err))
		return
	}

	calendar, err := h.calendars.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.CreateSuccessResponse(calendar))
}

func (h *CalendarHandler) Get(c *gin.Context) {
	calendar, err := h.calendars.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	member, err := h.calendars.IsMember(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if calendar.IsPrivate && !member {
		c.JSON(http.StatusForbidden, utils.CreateErrorResponse("FORBIDDEN", "you do not have access to this calendar"))
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(calendar))
}

func (h *CalendarHandler) InviteMember(c *gin.Context) {
	var req models.InviteCalendarMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.CreateValidationError(err))
		return
	}

	if err := h.calendars.InviteMember(c.Request.Context(), GetUserID(c), c.Param("id"), &req); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"invited": req.Email}))
}

func (h *CalendarHandler) AcceptInvite(c *gin.Context) {
	if err := h.calendars.AcceptInvite(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserEmail(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(gin.H{"accepted": true}))
}
