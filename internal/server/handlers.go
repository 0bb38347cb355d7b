package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"

	"github.com/grantsuite/accessgate/internal/auth"
	"github.com/grantsuite/accessgate/internal/config"
	gatemiddleware "github.com/grantsuite/accessgate/internal/middleware"
	"github.com/grantsuite/accessgate/internal/services/access"
)

// EntitlementAdmin applies entitlement writes. *entitlements.Manager satisfies it.
type EntitlementAdmin interface {
	GrantApp(ctx context.Context, profileID int64, appKey string, grantedBy *int64) error
	RevokeApp(ctx context.Context, profileID int64, appKey string) error
	SetActive(ctx context.Context, profileID int64, active bool) error
	SetSuperuser(ctx context.Context, profileID int64, superuser bool) error
	Invalidate(ctx context.Context, profileID int64) error
	InvalidateAll(ctx context.Context) error
}

type handlers struct {
	env          config.Environment
	gate         access.AuthGate
	admin        EntitlementAdmin
	entitlements access.EntitlementSource
	responder    gatemiddleware.Responder
	logger       *zap.Logger
}

func badRequest(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode("BAD_REQUEST")
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}

func profileIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid profile id")
	}
	return id, nil
}

// actor returns the profile performing an admin write, nil while enforcement is off.
func actor(r *http.Request) *int64 {
	d, ok := access.DecisionFromContext(r.Context())
	if !ok || d.Kind != access.Authorized {
		return nil
	}
	id := d.ProfileID
	return &id
}

type healthResponse struct {
	Status       string `json:"status"`
	AuthEnforced bool   `json:"auth_enforced"`
}

// GET /health
func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	enforced := h.gate != nil && h.gate.IsAuthRequired()
	gatemiddleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", AuthEnforced: enforced})
}

type sessionResponse struct {
	AuthEnforced bool   `json:"auth_enforced"`
	UserID       string `json:"user_id,omitempty"`
	ProfileID    *int64 `json:"profile_id,omitempty"`
	Method       string `json:"method,omitempty"`
}

// GET /api/auth/session
func (h *handlers) session(w http.ResponseWriter, r *http.Request) {
	d, _ := access.DecisionFromContext(r.Context())
	if d.Kind != access.Authorized {
		gatemiddleware.WriteJSON(w, http.StatusOK, sessionResponse{AuthEnforced: false})
		return
	}

	profileID := d.ProfileID
	gatemiddleware.WriteJSON(w, http.StatusOK, sessionResponse{
		AuthEnforced: true,
		UserID:       d.Session.UserID,
		ProfileID:    &profileID,
		Method:       string(d.Session.Method),
	})
}

type appAccessResponse struct {
	AuthEnforced bool     `json:"auth_enforced"`
	ProfileID    *int64   `json:"profile_id,omitempty"`
	Apps         []string `json:"apps"`
	IsSuperuser  bool     `json:"is_superuser"`
}

// GET /api/app-access
func (h *handlers) appAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, _ := access.DecisionFromContext(ctx)

	entry := d.Entry
	if d.Kind == access.Bypassed {
		id, ok, err := access.FallbackProfileID(h.env, r)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		if !ok {
			gatemiddleware.WriteJSON(w, http.StatusOK, appAccessResponse{Apps: []string{}})
			return
		}
		if entry, err = h.entitlements.GetEntry(ctx, id); err != nil {
			h.responder.WriteError(w, r, auth.DependencyError(err, "unable to load entitlements"))
			return
		}
	}

	profileID := entry.ProfileID
	gatemiddleware.WriteJSON(w, http.StatusOK, appAccessResponse{
		AuthEnforced: d.Kind == access.Authorized,
		ProfileID:    &profileID,
		Apps:         entry.AppKeys(),
		IsSuperuser:  entry.IsSuperuser,
	})
}

type appCheckResponse struct {
	AppKey  string `json:"app_key"`
	Allowed bool   `json:"allowed"`
}

// GET /api/apps/{appKey}/access. Denials never reach the handler.
func (h *handlers) appCheck(w http.ResponseWriter, r *http.Request) {
	gatemiddleware.WriteJSON(w, http.StatusOK, appCheckResponse{AppKey: chi.URLParam(r, "appKey"), Allowed: true})
}

type grantRequest struct {
	AppKey string `json:"app_key"`
}

type grantResponse struct {
	ProfileID int64  `json:"profile_id"`
	AppKey    string `json:"app_key"`
}

// POST /api/admin/profiles/{id}/apps
func (h *handlers) grantApp(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDParam(r)
	if err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	var req grantRequest
	if err := decodeBody(r, &req); err != nil {
		h.responder.WriteError(w, r, err)
		return
	}

	if err := h.admin.GrantApp(r.Context(), profileID, req.AppKey, actor(r)); err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	gatemiddleware.WriteJSON(w, http.StatusCreated, grantResponse{ProfileID: profileID, AppKey: req.AppKey})
}

// DELETE /api/admin/profiles/{id}/apps/{appKey}
func (h *handlers) revokeApp(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDParam(r)
	if err != nil {
		h.responder.WriteError(w, r, err)
		return
	}

	if err := h.admin.RevokeApp(r.Context(), profileID, chi.URLParam(r, "appKey")); err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activeRequest struct {
	Active *bool `json:"active"`
}

// PUT /api/admin/profiles/{id}/active
func (h *handlers) setActive(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDParam(r)
	if err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	var req activeRequest
	if err := decodeBody(r, &req); err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	if req.Active == nil {
		h.responder.WriteError(w, r, badRequest("active is required"))
		return
	}

	if err := h.admin.SetActive(r.Context(), profileID, *req.Active); err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type superuserRequest struct {
	Superuser *bool `json:"superuser"`
}

// PUT /api/admin/profiles/{id}/superuser
func (h *handlers) setSuperuser(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDParam(r)
	if err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	var req superuserRequest
	if err := decodeBody(r, &req); err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	if req.Superuser == nil {
		h.responder.WriteError(w, r, badRequest("superuser is required"))
		return
	}

	if err := h.admin.SetSuperuser(r.Context(), profileID, *req.Superuser); err != nil {
		h.responder.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invalidateRequest struct {
	ProfileID *int64 `json:"profile_id"`
}

type invalidateResponse struct {
	Invalidated string `json:"invalidated"`
}

// POST /api/admin/entitlements/invalidate. An empty body or no profile_id clears
// every entry.
func (h *handlers) invalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
	}

	if req.ProfileID == nil {
		h.flush(w, r)
		return
	}

	if err := h.admin.Invalidate(r.Context(), *req.ProfileID); err != nil {
		h.responder.WriteError(w, r, auth.DependencyError(err, "unable to invalidate entitlements"))
		return
	}
	gatemiddleware.WriteJSON(w, http.StatusOK, invalidateResponse{Invalidated: strconv.FormatInt(*req.ProfileID, 10)})
}

// POST /api/cron/entitlements/flush
func (h *handlers) flush(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.InvalidateAll(r.Context()); err != nil {
		h.responder.WriteError(w, r, auth.DependencyError(err, "unable to invalidate entitlements"))
		return
	}
	h.logger.Info("entitlement cache flushed", zap.String("path", r.URL.Path))
	gatemiddleware.WriteJSON(w, http.StatusOK, invalidateResponse{Invalidated: "all"})
}
