package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

var (
	ErrMissingToken  = errors.New("missing token")
	ErrMalformedAuth = errors.New("invalid authorization format")
	ErrInvalidToken  = errors.New("invalid token")
)

// Unauthenticated reports whether err means the request carried no usable
// identity.
func Unauthenticated(err error) bool {
	return errors.Is(err, ErrMissingToken) || errors.Is(err, ErrMalformedAuth) || errors.Is(err, ErrInvalidToken)
}

type contextKey string

const (
	UserIDKey contextKey = "userID"
	userKey   contextKey = "user"
)

// TokenFromRequest returns the bearer token of r. Websocket upgrades from a
// browser cannot set headers, so ?token= is accepted when no Authorization
// header is present.
func TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", ErrMalformedAuth
		}
		return token, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

// Authenticate resolves the user behind r's token. A valid token for a user
// that no longer exists is rejected like a bad one.
func (s *Service) Authenticate(r *http.Request) (*User, error) {
	token, err := TokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	userID, err := s.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

// AuthMiddleware rejects requests without a valid token and stores the
// resolved user in the request context.
func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.Authenticate(r)
		if err != nil {
			if Unauthenticated(err) {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			slog.Error("authenticate failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser returns ctx carrying user and its ID.
func WithUser(ctx context.Context, user *User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, UserIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey).(*User)
	return user, ok
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}
