package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/eventsphere/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsphere/internal/auth"
	"github.com/Shivanand-hulikatti/eventsphere/internal/model"
	"github.com/Shivanand-hulikatti/eventsphere/internal/service"
)

// UserService is account management as the handlers use it.
type UserService interface {
	Signup(ctx context.Context, req model.SignupRequest) (*service.Session, error)
	Login(ctx context.Context, req model.LoginRequest) (*service.Session, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context, page, limit int) (*model.UserPage, error)
	Delete(ctx context.Context, userID string) (*model.User, error)
}

// UserHandler serves /users and the account side of /admin.
type UserHandler struct {
	users    UserService
	cookies  auth.Cookies
	tokenTTL time.Duration
	log      *zap.Logger
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users UserService, cookies auth.Cookies, tokenTTL time.Duration, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, cookies: cookies, tokenTTL: tokenTTL, log: log}
}

// Signup handles POST /users/register
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	sess, err := h.users.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.cookies.Set(w, sess.Token, h.tokenTTL)
	writeData(w, http.StatusCreated, sess.User)
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	sess, err := h.users.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.cookies.Set(w, sess.Token, h.tokenTTL)
	writeData(w, http.StatusOK, sess.User)
}

// Logout handles POST /users/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	user, err := h.users.Me(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{id}. Users may delete themselves; admins may
// delete anyone.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "id")
	id, _ := auth.FromContext(r.Context())
	if !id.IsAdmin() && id.UserID != target {
		writeServiceError(w, r, h.log, apperr.ErrForbidden)
		return
	}
	h.delete(w, r, target)
}

// AdminDelete handles DELETE /admin/users/{id}
func (h *UserHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, chi.URLParam(r, "id"))
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request, userID string) {
	user, err := h.users.Delete(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	if id, _ := auth.FromContext(r.Context()); id.UserID == userID {
		h.cookies.Clear(w)
	}
	writeJSON(w, http.StatusOK, model.Envelope{
		Success: true,
		Message: "User deleted successfully",
		Data:    user,
	})
}

// ListUsers handles GET /admin/users?page&limit
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	res, err := h.users.ListUsers(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writePage(w, res.Users, res.Pagination)
}
