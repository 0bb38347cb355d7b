package auth

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Reasons reported by OriginGuard.
const (
	ReasonOriginMismatch     = "Origin mismatch"
	ReasonInvalidOrigin      = "Invalid Origin header"
	ReasonMissingOrigin      = "Missing Origin header"
	ReasonOriginUnconfigured = "Allowed origin not configured"
)

// OriginResult is the outcome of a CSRF origin check.
type OriginResult struct {
	Valid  bool
	Reason string
}

var originOK = OriginResult{Valid: true}

// OriginGuard rejects cross-site state-changing requests by comparing the Origin
// (or Referer) header against the single allowed origin.
type OriginGuard struct {
	allowed        string // normalised scheme://host:port, empty when unconfigured
	onUnconfigured FailureMode
	onMissing      FailureMode
	logger         *zap.Logger
}

// NewOriginGuard parses allowedOrigin once. An empty or unparsable value is logged
// as a misconfiguration and handled per onUnconfigured on every request.
func NewOriginGuard(allowedOrigin string, onUnconfigured, onMissing FailureMode, logger *zap.Logger) *OriginGuard {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &OriginGuard{
		onUnconfigured: onUnconfigured,
		onMissing:      onMissing,
		logger:         logger,
	}

	allowedOrigin = strings.TrimSpace(allowedOrigin)
	if allowedOrigin == "" {
		logger.Warn("allowed origin is not configured; origin checks are skipped",
			zap.String("failure_mode", string(onUnconfigured)))
		return g
	}

	normalized, ok := normalizeOrigin(allowedOrigin)
	if !ok {
		logger.Error("allowed origin is not a valid URL; origin checks are skipped",
			zap.String("allowed_origin", allowedOrigin),
			zap.String("failure_mode", string(onUnconfigured)))
		return g
	}
	g.allowed = normalized

	return g
}

// Configured reports whether a usable allowed origin was supplied.
func (g *OriginGuard) Configured() bool {
	return g.allowed != ""
}

// ValidateOrigin checks a request. Safe methods always pass.
func (g *OriginGuard) ValidateOrigin(r *http.Request) OriginResult {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return originOK
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		if g.onMissing == FailClosed {
			return OriginResult{Reason: ReasonMissingOrigin}
		}
		return originOK
	}

	if g.allowed == "" {
		if g.onUnconfigured == FailClosed {
			return OriginResult{Reason: ReasonOriginUnconfigured}
		}
		return originOK
	}

	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return OriginResult{Reason: ReasonInvalidOrigin}
	}
	if normalized != g.allowed {
		g.logger.Debug("origin mismatch",
			zap.String("origin", normalized),
			zap.String("allowed", g.allowed),
			zap.String("path", r.URL.Path))
		return OriginResult{Reason: ReasonOriginMismatch}
	}

	return originOK
}

// normalizeOrigin reduces a URL to scheme://host:port with lower-cased scheme and
// host and the scheme's default port filled in.
func normalizeOrigin(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return "", false
	}

	scheme := strings.ToLower(u.Scheme)
	port := u.Port()
	if port == "" {
		switch scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		default:
			return "", false
		}
	}

	return scheme + "://" + strings.ToLower(u.Hostname()) + ":" + port, true
}
