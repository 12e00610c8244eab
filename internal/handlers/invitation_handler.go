package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Varun5711/easywedding/internal/logger"
	"github.com/Varun5711/easywedding/internal/middleware"
	"github.com/Varun5711/easywedding/internal/models/invitation"
	"github.com/Varun5711/easywedding/internal/service"
)

type InvitationHandler struct {
	invitations *service.InvitationService
	ips         *middleware.ClientIPResolver
	log         *logger.Logger
}

func NewInvitationHandler(invitations *service.InvitationService, ips *middleware.ClientIPResolver, log *logger.Logger) *InvitationHandler {
	return &InvitationHandler{
		invitations: invitations,
		ips:         ips,
		log:         log,
	}
}

func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req invitation.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w)
		return
	}

	res, err := h.invitations.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondOK(w, http.StatusCreated, res, "invitation created")
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.invitations.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondOK(w, http.StatusOK, map[string]interface{}{"invitations": list}, "")
}

// Get serves the public share page data and records the view.
func (h *InvitationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("uuid")

	inv, err := h.invitations.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	// The view outlives the request so a slow stream never delays the page.
	ip, ua, referer := h.ips.ClientIP(r), r.UserAgent(), r.Referer()
	go h.invitations.RecordView(context.WithoutCancel(r.Context()), id, ip, ua, referer)

	respondOK(w, http.StatusOK, map[string]interface{}{"invitation": inv}, "")
}

func (h *InvitationHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	size := 0
	if s := r.URL.Query().Get("size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 64 && n <= 1024 {
			size = n
		}
	}

	png, err := h.invitations.QRCode(r.Context(), r.PathValue("uuid"), size)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *InvitationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.invitations.Stats(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("uuid"))
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	respondOK(w, http.StatusOK, stats, "")
}
