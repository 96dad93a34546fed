package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-petr/bankist/internal/domain"
	"github.com/go-petr/bankist/pkg/web"
)

// SessionChecker reports whether somebody is logged in.
type SessionChecker interface {
	Active() bool
}

// RequireSession aborts requests that need a logged in account when nobody
// is logged in.
func RequireSession(sc SessionChecker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !sc.Active() {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(domain.ErrNoActiveSession))
			return
		}

		ctx.Next()
	}
}
