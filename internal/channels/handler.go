package channels

import (
	"encoding/json"
	"net/http"

	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/workspaces"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name string `json:"name"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.BadRequest("invalid request body"))
		return
	}

	ch, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ch)
}

type listResponse struct {
	Channels []*Channel    `json:"channels"`
	Members  []memberEntry `json:"members"`
}

type memberEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	channels, members, err := h.service.List(r.Context())
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	resp := listResponse{
		Channels: channels,
		Members:  make([]memberEntry, len(members)),
	}
	if resp.Channels == nil {
		resp.Channels = []*Channel{}
	}
	for i, m := range members {
		resp.Members[i] = toMemberEntry(m)
	}

	writeJSON(w, http.StatusOK, resp)
}

func toMemberEntry(m *workspaces.Member) memberEntry {
	return memberEntry{
		ID:     m.UserID,
		Name:   m.UserName,
		Email:  m.UserEmail,
		Avatar: m.UserAvatar,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
