package api

import (
	"net/http"

	"bloodbank/internal/entity"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) Signup(c *gin.Context) {
	var req entity.AuthSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.auth.Signup(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *HTTPHandler) Login(c *gin.Context) {
	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.auth.Login(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout 令牌无状态，客户端丢弃即可
func (h *HTTPHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) AuthStatus(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	status, err := h.auth.Status(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *HTTPHandler) Me(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	summary, err := h.auth.Profile(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *HTTPHandler) UpdateMe(c *gin.Context) {
	var req entity.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	summary, err := h.auth.UpdateProfile(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
