package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oselz/projecthub-api/internal/models"
	"github.com/oselz/projecthub-api/internal/service"
	appErrors "github.com/oselz/projecthub-api/pkg/errors"
	"github.com/oselz/projecthub-api/pkg/response"
)

// DeliverableHandler manages deliverable endpoints.
type DeliverableHandler struct {
	service *service.DeliverableService
}

// NewDeliverableHandler constructs handler.
func NewDeliverableHandler(svc *service.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{service: svc}
}

// List godoc
// @Summary List deliverables
// @Tags Deliverables
// @Produce json
// @Param projectId query string false "Filter by project"
// @Param ownerId query string false "Filter by owner"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /deliverables [get]
func (h *DeliverableHandler) List(c *gin.Context) {
	var filter models.DeliverableFilter
	filter.ProjectID = c.Query("projectId")
	filter.OwnerID = c.Query("ownerId")
	if status := c.Query("status"); status != "" {
		s := models.DeliverableStatus(status)
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	deliverables, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deliverables, pagination)
}

// Get godoc
// @Summary Get a deliverable
// @Tags Deliverables
// @Produce json
// @Param id path string true "Deliverable ID"
// @Success 200 {object} response.Envelope
// @Router /deliverables/{id} [get]
func (h *DeliverableHandler) Get(c *gin.Context) {
	deliverable, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deliverable, nil)
}

// Create godoc
// @Summary Submit a deliverable
// @Tags Deliverables
// @Accept json
// @Produce json
// @Param payload body service.CreateDeliverableRequest true "Deliverable payload"
// @Success 201 {object} response.Envelope
// @Router /deliverables [post]
func (h *DeliverableHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deliverable, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, deliverable)
}

// Update godoc
// @Summary Update a deliverable
// @Tags Deliverables
// @Accept json
// @Produce json
// @Param id path string true "Deliverable ID"
// @Param payload body service.UpdateDeliverableRequest true "Deliverable payload"
// @Success 200 {object} response.Envelope
// @Router /deliverables/{id} [put]
func (h *DeliverableHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deliverable, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deliverable, nil)
}

// Delete godoc
// @Summary Delete a deliverable
// @Tags Deliverables
// @Param id path string true "Deliverable ID"
// @Success 204 {object} nil
// @Router /deliverables/{id} [delete]
func (h *DeliverableHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
