package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) Dashboard(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := h.stats.Dashboard(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *HTTPHandler) HealthReport(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := h.stats.HealthReport(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CreateBackup 导出 JSON 快照到配置的对象存储
func (h *HTTPHandler) CreateBackup(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.backups.Create(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
