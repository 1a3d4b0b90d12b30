package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"axiapac.com/punchclock/auth"
	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/web/common"
)

const (
	SessionCookie = "punchclock.session"
	employeeKey   = "employee"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// Try to get from cookie
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie == "" {
			return "", false
		}
		return cookie, true
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Authentication accepts the device session token as a Bearer header or cookie.
func Authentication(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("login required"))
			return
		}

		emp, err := svc.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			status := common.StatusFor(err)
			if status == http.StatusUnauthorized {
				c.AbortWithStatusJSON(status, common.NewErrorResponse("invalid or expired token"))
				return
			}
			common.AbortWithError(c, err)
			return
		}

		c.Set(employeeKey, emp)
		c.Next()
	}
}

// CurrentEmployee returns the employee set by Authentication.
func CurrentEmployee(c *gin.Context) *model.Employee {
	if v, ok := c.Get(employeeKey); ok {
		if emp, ok := v.(*model.Employee); ok {
			return emp
		}
	}
	return nil
}
