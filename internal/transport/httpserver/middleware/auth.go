package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"foodshare-go/internal/auth"
	userdomain "foodshare-go/internal/domain/user"
	"foodshare-go/pkg/logger"
)

type contextKey int

const userKey contextKey = 0

type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	BuildingID   *string
	BuildingName *string
}

func (u User) IsAdmin() bool {
	return u.Role == userdomain.RoleAdmin
}

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type SessionLoader interface {
	GetSession(ctx context.Context, userID string) (*userdomain.Session, error)
}

// SessionAuth resolves the session from the cookie or a bearer token. It never rejects a request;
// routes that need a user wrap their handlers with Require or RequireAdmin.
type SessionAuth struct {
	tokens     TokenParser
	sessions   SessionLoader
	cookieName string
	log        logger.Logger
}

func NewSessionAuth(tokens TokenParser, sessions SessionLoader, cookieName string, log logger.Logger) *SessionAuth {
	return &SessionAuth{
		tokens:     tokens,
		sessions:   sessions,
		cookieName: cookieName,
		log:        log,
	}
}

func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := a.token(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.tokens.Parse(token)
		if err != nil {
			a.log.Debug("auth: token rejected", "err", err)
			next.ServeHTTP(w, r)
			return
		}

		session, err := a.sessions.GetSession(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, userdomain.ErrUserNotFound) || errors.Is(err, userdomain.ErrUserBlocked) {
				a.log.BusinessError("auth: session rejected", err, "user_id", claims.UserID)
				next.ServeHTTP(w, r)
				return
			}
			a.log.InternalError("auth: load session failed", err, "user_id", claims.UserID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			return
		}

		ctx := WithUser(r.Context(), User{
			ID:           session.ID,
			Email:        session.Email,
			Name:         session.Name,
			Role:         session.Role,
			BuildingID:   session.BuildingID,
			BuildingName: session.BuildingName,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *SessionAuth) token(r *http.Request) (string, bool) {
	if a.cookieName != "" {
		if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, true
		}
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			unauthorized(w)
			return
		}
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
