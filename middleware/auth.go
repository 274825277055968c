package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"raceday-api/services"
)

const actorKey = "actor"

// TokenParser verifies bearer tokens
type TokenParser interface {
	Parse(raw string) (services.Credentials, error)
}

// SessionReader reads the signed-in runner from the session cookie
type SessionReader interface {
	Current(r *http.Request) (runnerID uint, fingerprint string, ok bool)
}

// ActorResolver checks credentials against the stored runner
type ActorResolver interface {
	ResolveActor(ctx context.Context, creds services.Credentials) (services.Actor, error)
}

// Authenticate resolves the actor from the session cookie, falling back to
// an Authorization bearer token. Requests with no usable credentials pass
// through anonymously; RequireAuth rejects them where it matters.
func Authenticate(sessions SessionReader, tokens TokenParser, actors ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, ok := requestCredentials(c, sessions, tokens)
		if !ok {
			c.Next()
			return
		}

		actor, err := actors.ResolveActor(c.Request.Context(), creds)
		switch {
		case err == nil:
			c.Set(actorKey, actor)
		case !errors.Is(err, services.ErrInvalidCredentials):
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Error: "Internal server error",
				Code:  http.StatusInternalServerError,
			})
			return
		}
		c.Next()
	}
}

func requestCredentials(c *gin.Context, sessions SessionReader, tokens TokenParser) (services.Credentials, bool) {
	if id, fingerprint, ok := sessions.Current(c.Request); ok {
		return services.Credentials{RunnerID: id, Fingerprint: fingerprint}, true
	}
	raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		return services.Credentials{}, false
	}
	creds, err := tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		return services.Credentials{}, false
	}
	return creds, true
}

// CurrentActor returns the authenticated runner, if any
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}

// RequireAuth rejects anonymous requests with 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentActor(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Authentication required",
				Code:  http.StatusUnauthorized,
			})
			return
		}
		c.Next()
	}
}

// RequireStaff rejects anonymous requests with 401 and non-staff with 403
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Authentication required",
				Code:  http.StatusUnauthorized,
			})
			return
		}
		if !actor.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error: "Staff access required",
				Code:  http.StatusForbidden,
			})
			return
		}
		c.Next()
	}
}
