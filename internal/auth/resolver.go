// internal/auth/resolver.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// CookieName carries the identity token between visits.
const CookieName = "auth_token"

// ErrUserNotFound is returned by a UserStore that has no such user.
var ErrUserNotFound = errors.New("user not found")

// UserStore finds users by id and records newly minted guests.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpsertUser(ctx context.Context, u *models.User) error
}

// Resolver turns an incoming request into a user. Requests without a valid
// token become guests and receive a fresh token cookie.
type Resolver struct {
	signer *Signer
	users  UserStore // optional
	logger *logrus.Logger
}

func NewResolver(signer *Signer, users UserStore, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{signer: signer, users: users, logger: logger}
}

// Resolve reads the token from the auth_token cookie or the "token" query
// parameter. A verified id is looked up for its display name; an unknown id
// keeps its identity as a guest so a reconnect lands on the same seat.
func (rv *Resolver) Resolve(w http.ResponseWriter, r *http.Request) (*models.User, error) {
	token := ExtractCookieToken(r.Header.Get("Cookie"), CookieName)
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	if token != "" {
		id, err := rv.signer.AuthenticateJWT(token)
		if err == nil {
			return rv.lookup(r.Context(), id), nil
		}
		rv.logger.Debugf("Discarding invalid token from %s: %v", r.RemoteAddr, err)
	}

	guest := newGuest()
	if rv.users != nil {
		if err := rv.users.UpsertUser(r.Context(), guest); err != nil {
			rv.logger.Warnf("Failed to store guest %s: %v", guest.ID, err)
		}
	}
	signed, err := rv.signer.CreateJWT(guest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign guest token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	rv.logger.Infof("Created guest %s (%s).", guest.Username, guest.ID)
	return guest, nil
}

func (rv *Resolver) lookup(ctx context.Context, id uuid.UUID) *models.User {
	if rv.users != nil {
		u, err := rv.users.GetUserByID(ctx, id)
		if err == nil {
			return u
		}
		if !errors.Is(err, ErrUserNotFound) {
			rv.logger.Warnf("User lookup for %s failed: %v", id, err)
		}
	}
	return &models.User{ID: id, Username: guestName(id), IsEphemeral: true}
}

func newGuest() *models.User {
	id := uuid.New()
	return &models.User{ID: id, Username: guestName(id), IsEphemeral: true}
}

// guestName derives a stable "Guest_NNNN" from the id.
func guestName(id uuid.UUID) string {
	seed := int64(id[0])<<24 | int64(id[1])<<16 | int64(id[2])<<8 | int64(id[3])
	return fmt.Sprintf("Guest_%04d", rand.New(rand.NewSource(seed)).Intn(10000))
}

// ExtractCookieToken finds cookieName in a raw Cookie header.
func ExtractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, cookieName+"=") {
			return strings.TrimPrefix(part, cookieName+"=")
		}
	}
	return ""
}
