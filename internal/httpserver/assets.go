package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *handlers) validateAsset(c *gin.Context) {
	locator := strings.TrimSpace(c.Query("url"))
	if locator == "" {
		writeError(c, http.StatusBadRequest, "url query parameter is required")
		return
	}
	valid := h.deps.Assets.Validate(c.Request.Context(), locator)
	c.JSON(http.StatusOK, gin.H{"url": locator, "valid": valid})
}
