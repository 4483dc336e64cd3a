package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/teamflow/pkg/errors"
	"github.com/charlesng35/teamflow/pkg/response"
	appValidator "github.com/charlesng35/teamflow/pkg/validator"
)

// bindAndValidate decodes the JSON body into dest and applies its validate
// tags. On failure it writes the error response and returns false; field
// failures are listed under error.details.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	err := appValidator.ValidateStruct(dest)
	if err == nil {
		return true
	}

	var failures appValidator.ValidationErrors
	if errors.As(err, &failures) && len(failures) > 0 {
		response.Error(c, appErrors.NewValidation(failures.Error(), failures))
		return false
	}
	response.Error(c, appErrors.NewBadRequest("invalid request payload"))
	return false
}

// parseIntQuery reads a non-negative integer query parameter.
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
