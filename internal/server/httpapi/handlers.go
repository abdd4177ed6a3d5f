package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/logging"
	"github.com/dmitrijs2005/pms/internal/server/models"
	"github.com/dmitrijs2005/pms/internal/server/services"
	"github.com/julienschmidt/httprouter"
)

// AccountService is implemented by *services.UserService.
type AccountService interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	SetPassword(ctx context.Context, userID, plain string) error
	SetStatus(ctx context.Context, userID string, status models.UserStatus) error
}

type Handlers struct {
	accounts AccountService
	roles    RoleResolver
	logger   logging.Logger
}

func NewHandlers(accounts AccountService, roles RoleResolver, l logging.Logger) *Handlers {
	if l == nil {
		l = logging.Nop{}
	}
	return &Handlers{accounts: accounts, roles: roles, logger: l}
}

type userView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func viewOf(u *models.User) userView {
	v := userView{ID: u.ID, Email: u.Email, Name: u.Name, Status: u.Status.String()}
	if !u.CreatedAt.IsZero() {
		t := u.CreatedAt
		v.CreatedAt = &t
	}
	return v
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		JSONError(w, http.StatusBadRequest, "email and password are required", nil)
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "login failed")
		return
	}
	JSON(w, http.StatusOK, loginResponse{Token: res.Token, User: viewOf(res.User)})
}

// Me returns the loaded principal, or only its id when the principal could
// not be loaded.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := services.IdentityFromContext(r.Context())
	if !ok {
		JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	if id.User == nil {
		JSON(w, http.StatusOK, map[string]userView{"user": {ID: id.UserID}})
		return
	}
	JSON(w, http.StatusOK, map[string]userView{"user": viewOf(id.User)})
}

type permissionsResponse struct {
	Role        models.Role `json:"role"`
	Permissions []string    `json:"permissions"`
}

func (h *Handlers) Permissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := services.IdentityFromContext(ctx)
	if !ok {
		JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	acc, err := h.roles.Resolve(ctx, id.UserID)
	if err != nil {
		logging.FromContext(ctx, h.logger).Error(ctx, "resolve permissions", "error", err)
		JSONError(w, http.StatusInternalServerError, "failed to load permissions", nil)
		return
	}
	JSON(w, http.StatusOK, permissionsResponse{Role: acc.Role, Permissions: acc.Permissions})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := services.IdentityFromContext(r.Context())
	if !ok {
		JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err, "password change failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setPasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handlers) SetUserPassword(w http.ResponseWriter, r *http.Request) {
	userID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.accounts.SetPassword(r.Context(), userID, req.Password); err != nil {
		h.writeServiceError(w, r, err, "set password failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID := httprouter.ParamsFromContext(r.Context()).ByName("id")
	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	status, err := models.ParseUserStatus(req.Status)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "invalid status", req.Status)
		return
	}
	if err := h.accounts.SetStatus(r.Context(), userID, status); err != nil {
		h.writeServiceError(w, r, err, "set status failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		JSONError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, common.ErrorUnauthorized):
		JSONError(w, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, common.ErrorNotFound):
		JSONError(w, http.StatusNotFound, "not found", nil)
	default:
		logging.FromContext(r.Context(), h.logger).Error(r.Context(), fallback, "error", err)
		JSONError(w, http.StatusInternalServerError, fallback, nil)
	}
}
