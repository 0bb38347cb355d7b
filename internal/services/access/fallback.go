package access

import (
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/config"
)

// ProfileIDHeader carries a client-chosen profile id while enforcement is off.
const ProfileIDHeader = "X-Profile-Id"

// FallbackProfileID reads ProfileIDHeader. The header is trusted only outside
// production; in production it is a configuration error, because a bypassed
// request there means enforcement is misconfigured.
func FallbackProfileID(env config.Environment, r *http.Request) (int64, bool, error) {
	if env.IsProduction() {
		return 0, false, auth.ConfigurationError("authentication is not enforced in production")
	}

	raw := strings.TrimSpace(r.Header.Get(ProfileIDHeader))
	if raw == "" {
		return 0, false, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, goerrors.New("invalid "+ProfileIDHeader+" header", goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode("INVALID_PROFILE_ID")
	}
	return id, true, nil
}

// EffectiveProfileID returns the profile a handler should act for: the authorized
// profile, or the development fallback for bypassed requests.
func EffectiveProfileID(env config.Environment, d Decision, r *http.Request) (int64, bool, error) {
	switch d.Kind {
	case Authorized:
		return d.ProfileID, true, nil
	case Bypassed:
		return FallbackProfileID(env, r)
	default:
		return 0, false, d.Err()
	}
}
