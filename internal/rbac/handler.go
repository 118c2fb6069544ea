package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-lite/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-lite/internal/shared"
)

// Handler exposes the caller's access information and the role catalog.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the self-service routes under /api.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me/access", h.access)
	r.Get("/me/permissions/check", h.checkPermission)
}

// MountAdminRoutes registers catalog routes. Callers guard the group.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/roles", h.listRoles)
}

type accessResponse struct {
	UserID       string `json:"user_id"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	Roles        []Role `json:"roles"`
}

func (h *Handler) access(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	resp := accessResponse{UserID: identity.ID}
	var g errgroup.Group
	g.Go(func() error {
		resp.IsSuperAdmin = h.service.CheckSuperAdmin(r.Context())
		return nil
	})
	g.Go(func() error {
		resp.Roles = h.service.GetUserRoles(r.Context(), identity.ID)
		return nil
	})
	_ = g.Wait()
	httpx.JSON(w, http.StatusOK, resp)
}

type checkResponse struct {
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Allowed  bool   `json:"allowed"`
}

func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	if shared.IdentityFromContext(r.Context()) == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	action := strings.TrimSpace(r.URL.Query().Get("action"))
	resource := strings.TrimSpace(r.URL.Query().Get("resource"))
	if action == "" || resource == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "action and resource are required")
		return
	}
	allowed := h.service.HasPermission(r.Context(), action, resource, "")
	h.logger.Debug("permission probe", slog.String("action", action), slog.String("resource", resource), slog.Bool("allowed", allowed))
	httpx.JSON(w, http.StatusOK, checkResponse{Action: action, Resource: resource, Allowed: allowed})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.service.GetAllRoles(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}
