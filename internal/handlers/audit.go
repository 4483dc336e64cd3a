package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/teamflow/internal/services"
	appErrors "github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/response"
)

type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(svc *services.AuditService) (*AuditHandler, error) {
	if svc == nil {
		return nil, errors.New("audit handler: service is required")
	}
	return &AuditHandler{svc: svc}, nil
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	per := parseIntQuery(c, "per_page", 50)

	filters := services.AuditFilters{
		Action:   strings.TrimSpace(c.Query("action")),
		Result:   strings.TrimSpace(c.Query("result")),
		Resource: strings.TrimSpace(c.Query("resource")),
		TeamID:   strings.TrimSpace(c.Query("team_id")),

		RequestID: strings.TrimSpace(c.Query("request_id")),
	}

	var ok bool
	if filters.Since, ok = parseTimeQuery(c, "since"); !ok {
		return
	}
	if filters.Until, ok = parseTimeQuery(c, "until"); !ok {
		return
	}

	logs, total, err := h.svc.List(requestContext(c), services.AuditListOptions{Page: page, PageSize: per, Filters: filters})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{Page: page, PerPage: per, Total: int(total)})
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(key+" must be an RFC3339 timestamp"))
		return nil, false
	}
	return &t, true
}
