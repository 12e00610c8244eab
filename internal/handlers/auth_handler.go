package handlers

import (
	"net/http"

	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/middleware"
	usermodel "github.com/Varun5711/easywedding/internal/models/user"
	"github.com/Varun5711/easywedding/internal/service"
)

type AuthHandler struct {
	auth service.Authenticator
	log  *logger.Logger
}

func NewAuthHandler(auth service.Authenticator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req usermodel.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Debug("register: bad body: %v", err)
		respondInvalidBody(w)
		return
	}

	res, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondOK(w, http.StatusCreated, res, "registration completed")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req usermodel.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Debug("login: bad body: %v", err)
		respondInvalidBody(w)
		return
	}

	res, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondOK(w, http.StatusOK, res, "login successful")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondOK(w, http.StatusOK, map[string]interface{}{"user": user}, "")
}
