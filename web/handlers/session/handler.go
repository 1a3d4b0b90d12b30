package session

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/auth"
	"axiapac.com/punchclock/core"
	"axiapac.com/punchclock/web/common"
	"axiapac.com/punchclock/web/metrics"
	"axiapac.com/punchclock/web/middlewares"
)

type Endpoint struct {
	auth    *auth.Service
	metrics *metrics.Metrics
}

func Register(r *gin.RouterGroup, svc *auth.Service, m *metrics.Metrics, authenticated gin.HandlerFunc) {
	endpoint := &Endpoint{auth: svc, metrics: m}
	r.POST("/auth/login", endpoint.Login)
	r.GET("/auth/session", endpoint.Session)
	r.POST("/auth/logout", authenticated, endpoint.Logout)
}

type LoginDTO struct {
	PhoneNumber string `json:"phoneNumber" binding:"required,numeric"`
	Pin         string `json:"pin" binding:"required"`
}

func (ep *Endpoint) Login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	session, err := ep.auth.Login(c.Request.Context(), dto.PhoneNumber, dto.Pin)
	if err != nil {
		ep.metrics.Login(loginResult(err))
		common.AbortWithError(c, err)
		return
	}
	ep.metrics.Login("ok")

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middlewares.SessionCookie, session.Token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, common.NewSuccessResponse(session))
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "unknown_phone"
	case errors.Is(err, core.ErrInvalidCredential):
		return "invalid_pin"
	}
	return "error"
}

// Session restores the device session, e.g. after the app restarts.
func (ep *Endpoint) Session(c *gin.Context) {
	session, err := ep.auth.Restore(c.Request.Context())
	if err != nil {
		common.AbortWithError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, common.NewErrorResponse("No active session"))
		return
	}
	c.JSON(http.StatusOK, common.NewSuccessResponse(session))
}

func (ep *Endpoint) Logout(c *gin.Context) {
	if err := ep.auth.Logout(c.Request.Context()); err != nil {
		common.AbortWithError(c, err)
		return
	}
	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{}))
}
