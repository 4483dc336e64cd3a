package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/services"
	"github.com/charlesng35/teamflow/pkg/response"
)

// ScopeHandler reads and switches the active team.
type ScopeHandler struct {
	svc *services.ScopeService
}

type selectScopeRequest struct {
	TeamID string `json:"team_id" validate:"required,identifier"`
}

func NewScopeHandler(svc *services.ScopeService) (*ScopeHandler, error) {
	if svc == nil {
		return nil, errors.New("scope handler: service is required")
	}
	return &ScopeHandler{svc: svc}, nil
}

// GET /api/scope
func (h *ScopeHandler) Get(c *gin.Context) {
	team, err := h.svc.Current(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"team": team})
}

// PUT /api/scope
func (h *ScopeHandler) Select(c *gin.Context) {
	var body selectScopeRequest
	if !bindAndValidate(c, &body) {
		return
	}
	change, err := h.svc.Select(requestContext(c), strings.TrimSpace(body.TeamID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, change)
}

// DELETE /api/scope
func (h *ScopeHandler) Clear(c *gin.Context) {
	change, err := h.svc.Clear(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, change)
}
