package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oselz/projecthub-api/internal/service"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
	"github.com/oselz/projecthub-api/pkg/response"
)

// EventHandler manages calendar event endpoints.
type EventHandler struct {
	events *service.EventSyncService
	agenda *service.AgendaService
}

// NewEventHandler constructs handler.
func NewEventHandler(events *service.EventSyncService, agenda *service.AgendaService) *EventHandler {
	return &EventHandler{events: events, agenda: agenda}
}

// List godoc
// @Summary List the caller's calendar events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	events, err := h.events.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Upcoming godoc
// @Summary List the caller's next upcoming events
// @Tags Events
// @Produce json
// @Param limit query int false "Maximum events to return"
// @Success 200 {object} response.Envelope
// @Router /events/upcoming [get]
func (h *EventHandler) Upcoming(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	events, err := h.agenda.Upcoming(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// ListRange godoc
// @Summary List the caller's events overlapping a time window
// @Tags Events
// @Produce json
// @Param start query string false "Window start (RFC3339 or date)"
// @Param end query string false "Window end (RFC3339 or date)"
// @Success 200 {object} response.Envelope
// @Router /events/range [get]
func (h *EventHandler) ListRange(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	events, err := h.events.ListRange(c.Request.Context(), c.Query("start"), c.Query("end"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Get godoc
// @Summary Get a calendar event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create a calendar event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update a calendar event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpdateEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.events.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete a calendar event
// @Tags Events
// @Param id path string true "Event ID"
// @Success 204 {object} nil
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.events.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TriggerSync godoc
// @Summary Push an event to the remote calendar
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/sync [post]
func (h *EventHandler) TriggerSync(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	event, err := h.events.TriggerSync(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// ListRemote godoc
// @Summary List events straight from the remote calendar
// @Tags Events
// @Produce json
// @Param start query string false "Window start (RFC3339 or date)"
// @Param end query string false "Window end (RFC3339 or date)"
// @Success 200 {object} response.Envelope
// @Router /events/remote [get]
func (h *EventHandler) ListRemote(c *gin.Context) {
	events, err := h.events.FetchRemoteWindow(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Export godoc
// @Summary Export the caller's upcoming agenda as CSV or PDF
// @Tags Events
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format (csv or pdf)"
// @Param limit query int false "Maximum events to include"
// @Success 200 {file} binary
// @Router /events/export [get]
func (h *EventHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	payload, contentType, err := h.agenda.Export(c.Request.Context(), claims.UserID, limit, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("agenda.%s", format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// SaveExport godoc
// @Summary Store an agenda export and return a signed download link
// @Tags Events
// @Produce json
// @Param format query string false "Export format (csv or pdf)"
// @Param limit query int false "Maximum events to include"
// @Success 201 {object} response.Envelope
// @Router /events/export [post]
func (h *EventHandler) SaveExport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	saved, err := h.agenda.ExportToFile(c.Request.Context(), claims.UserID, limit, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, saved)
}

// DownloadExport godoc
// @Summary Download a previously stored agenda export
// @Tags Events
// @Produce text/csv
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /events/export/download [get]
func (h *EventHandler) DownloadExport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	payload, contentType, err := h.agenda.Download(token, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, payload)
}
