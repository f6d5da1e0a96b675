package api

import (
	"net/http"

	"bloodbank/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var query entity.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid query parameters")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	response, err := h.auth.ListUsers(ctx, &query)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
