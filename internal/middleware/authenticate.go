package middleware

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cashcards/cashcards/internal/access"
	"github.com/cashcards/cashcards/internal/auth"
	"github.com/cashcards/cashcards/internal/identity"
)

const authRealm = `Basic realm="cashcards"`

// Authenticate verifies HTTP Basic credentials or a Bearer access token and
// stores the resulting identity.Principal under access.PrincipalKey. It only
// establishes who the caller is; role checks happen in access.RequireRole.
func Authenticate(ids *identity.Service, tokens *auth.Service, limiter *FailureLimiter, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, credential, _ := strings.Cut(header, " ")
		credential = strings.TrimSpace(credential)

		var (
			principal identity.Principal
			err       error
		)
		switch {
		case strings.EqualFold(scheme, "basic") && credential != "":
			principal, err = basicPrincipal(c, ids, limiter, credential)
		case strings.EqualFold(scheme, "bearer") && credential != "" && tokens != nil:
			principal, err = bearerPrincipal(c, ids, tokens, credential)
		default:
			err = errUnauthenticated
		}

		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) && fe.Code == http.StatusTooManyRequests {
				return err
			}
			if !errors.Is(err, errUnauthenticated) {
				logger.Error("authentication backend failure", slog.Any("error", err))
				return fiber.NewError(http.StatusInternalServerError, "authentication unavailable")
			}
			c.Set(fiber.HeaderWWWAuthenticate, authRealm)
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}

		c.Locals(access.PrincipalKey, principal)
		return c.Next()
	}
}

var errUnauthenticated = errors.New("unauthenticated")

func basicPrincipal(c *fiber.Ctx, ids *identity.Service, limiter *FailureLimiter, credential string) (identity.Principal, error) {
	raw, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		return identity.Principal{}, errUnauthenticated
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok || username == "" {
		return identity.Principal{}, errUnauthenticated
	}

	ctx := c.UserContext()
	if limiter.Blocked(ctx, username) {
		return identity.Principal{}, fiber.NewError(http.StatusTooManyRequests, "too many failed login attempts, try again later")
	}

	p, err := ids.Authenticate(ctx, identity.Credentials{Username: username, Password: password})
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			limiter.Fail(ctx, username)
			return identity.Principal{}, errUnauthenticated
		}
		return identity.Principal{}, err
	}
	limiter.Reset(ctx, username)
	return p, nil
}

// bearerPrincipal re-reads the user so revoked accounts and changed roles take
// effect before the token expires.
func bearerPrincipal(c *fiber.Ctx, ids *identity.Service, tokens *auth.Service, credential string) (identity.Principal, error) {
	claims, err := tokens.Verify(credential)
	if err != nil {
		return identity.Principal{}, errUnauthenticated
	}
	p, found, err := ids.Lookup(c.UserContext(), claims.Subject)
	if err != nil {
		return identity.Principal{}, err
	}
	if !found {
		return identity.Principal{}, errUnauthenticated
	}
	return p, nil
}
