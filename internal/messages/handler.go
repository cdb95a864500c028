package messages

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/reactions"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// wireMessage is the JSON shape both the feed client and the TUI consume.
type wireMessage struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channelId"`
	ThreadID     string    `json:"threadId,omitempty"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	AuthorEmail  string    `json:"authorEmail"`
	AuthorAvatar string    `json:"authorAvatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type wireListItem struct {
	wireMessage
	RepliesCount int                 `json:"repliesCount"`
	Reactions    []reactions.Grouped `json:"reactions"`
}

func toWire(msg *Message) wireMessage {
	w := wireMessage{
		ID:           msg.PublicID(),
		ChannelID:    msg.ChannelID.String(),
		ThreadID:     msg.ThreadPublicID(),
		Content:      msg.Content,
		AuthorID:     msg.AuthorID,
		AuthorName:   msg.AuthorName,
		AuthorEmail:  msg.AuthorEmail,
		AuthorAvatar: msg.AuthorAvatar,
		CreatedAt:    msg.CreatedAt,
		UpdatedAt:    msg.UpdatedAt,
	}
	if msg.ImageURL != nil {
		w.ImageURL = *msg.ImageURL
	}
	return w
}

func toWireItem(item *ListItem) wireListItem {
	grouped := item.Reactions
	if grouped == nil {
		grouped = []reactions.Grouped{}
	}
	return wireListItem{
		wireMessage:  toWire(&item.Message),
		RepliesCount: item.RepliesCount,
		Reactions:    grouped,
	}
}

type createRequest struct {
	ChannelID string `json:"channelId"`
	Content   string `json:"content"`
	ImageURL  string `json:"imageUrl,omitempty"`
	ThreadID  string `json:"threadId,omitempty"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.ChannelID == "" {
		errors.WriteHTTP(w, errors.BadRequest("channelId is required"))
		return
	}
	if req.Content == "" {
		errors.WriteHTTP(w, errors.BadRequest("content is required"))
		return
	}

	msg, err := h.service.Create(r.Context(), CreateInput{
		ChannelID: req.ChannelID,
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		ThreadID:  req.ThreadID,
	})
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toWire(msg))
}

type listResponse struct {
	Items      []wireListItem `json:"items"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		errors.WriteHTTP(w, errors.BadRequest("channelId is required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			errors.WriteHTTP(w, errors.BadRequest("invalid limit"))
			return
		}
		limit = parsed
	}

	page, err := h.service.List(r.Context(), channelID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	resp := listResponse{
		Items:      make([]wireListItem, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i, item := range page.Items {
		resp.Items[i] = toWireItem(item)
	}

	writeJSON(w, http.StatusOK, resp)
}

type updateRequest struct {
	Content string `json:"content"`
}

type updateResponse struct {
	Message wireMessage `json:"message"`
	CanEdit bool        `json:"canEdit"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["messageId"]

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.Content == "" {
		errors.WriteHTTP(w, errors.BadRequest("content is required"))
		return
	}

	result, err := h.service.Update(r.Context(), messageID, req.Content)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{
		Message: toWire(result.Message),
		CanEdit: result.CanEdit,
	})
}

type threadResponse struct {
	Parent   wireListItem   `json:"parent"`
	Messages []wireListItem `json:"messages"`
}

func (h *Handler) Thread(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["messageId"]

	result, err := h.service.Thread(r.Context(), messageID)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	resp := threadResponse{
		Parent:   toWireItem(result.Parent),
		Messages: make([]wireListItem, len(result.Messages)),
	}
	for i, item := range result.Messages {
		resp.Messages[i] = toWireItem(item)
	}

	writeJSON(w, http.StatusOK, resp)
}

type toggleRequest struct {
	Emoji string `json:"emoji"`
}

type toggleResponse struct {
	MessageID string              `json:"messageId"`
	Reactions []reactions.Grouped `json:"reactions"`
}

func (h *Handler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	messageID := mux.Vars(r)["messageId"]

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.Emoji == "" {
		errors.WriteHTTP(w, errors.BadRequest("emoji is required"))
		return
	}

	result, err := h.service.ToggleReaction(r.Context(), messageID, req.Emoji)
	if err != nil {
		errors.WriteHTTP(w, err)
		return
	}

	grouped := result.Reactions
	if grouped == nil {
		grouped = []reactions.Grouped{}
	}

	writeJSON(w, http.StatusOK, toggleResponse{
		MessageID: result.MessageID,
		Reactions: grouped,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
