package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-api/internal/auth"
	"github.com/sakif/recipe-api/internal/serializer"
	"github.com/sakif/recipe-api/internal/service"
)

// UserHandler serves /api/user/: registration, token login and the caller's
// own profile.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateMeRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// HandleCreate registers a new account. The response never contains the
// password.
//
// HTTP: POST /api/user/create/
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid registration JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, serializer.NewUser(*user))
}

// HandleToken exchanges credentials for a token.
//
// HTTP: POST /api/user/token/
func (h *UserHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid token request JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	token, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.Token{Token: token})
}

// HTTP: GET /api/user/me/
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, serializer.NewUser(*user))
}

// HTTP: PATCH /api/user/me/ (PUT is accepted with the same partial semantics)
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid profile JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewUser(*user))
}
