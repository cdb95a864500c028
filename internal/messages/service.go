package messages

import (
	"context"

	"github.com/huddle-chat/huddle/internal/audit"
	"github.com/huddle-chat/huddle/internal/channels"
	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/events"
	"github.com/huddle-chat/huddle/internal/identity"
	"github.com/huddle-chat/huddle/internal/infra"
	"github.com/huddle-chat/huddle/internal/reactions"
)

type Service struct {
	repo     *Repository
	channels *channels.Service
	hub      *events.Hub
	audit    *audit.Logger
}

func NewService(repo *Repository, channels *channels.Service, hub *events.Hub, auditLogger *audit.Logger) *Service {
	return &Service{
		repo:     repo,
		channels: channels,
		hub:      hub,
		audit:    auditLogger,
	}
}

type CreateInput struct {
	ChannelID string
	Content   string
	ImageURL  string
	ThreadID  string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Message, error) {
	viewer := identity.ViewerFromContext(ctx)
	if viewer == nil {
		return nil, errors.Unauthorized("user not authenticated")
	}

	if input.Content == "" {
		return nil, errors.BadRequest("content is required")
	}

	ch, err := s.channels.GetScoped(ctx, input.ChannelID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		ChannelID:    ch.ID,
		Content:      input.Content,
		AuthorID:     viewer.ID,
		AuthorName:   viewer.Name,
		AuthorEmail:  viewer.Email,
		AuthorAvatar: identity.AvatarURL(viewer.AvatarURL, viewer.Email),
	}

	if input.ImageURL != "" {
		msg.ImageURL = &input.ImageURL
	}

	if input.ThreadID != "" {
		parentID, err := infra.ParseID(input.ThreadID)
		if err != nil {
			return nil, errors.BadRequest("invalid thread id")
		}

		parent, err := s.repo.GetScoped(ctx, parentID, viewer.WorkspaceID)
		if err != nil {
			return nil, err
		}
		// Replies attach only to top-level messages in the same channel.
		if parent.ChannelID != ch.ID || parent.ThreadID != nil {
			return nil, errors.BadRequest("invalid thread parent")
		}
		msg.ThreadID = &parentID
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Log(ctx, audit.Event{
			UserID:       viewer.ID,
			Action:       "message.create",
			ResourceID:   msg.PublicID(),
			ResourceType: "message",
		})
	}

	if s.hub != nil {
		s.hub.Broadcast(ch.ID.String(), events.EventMessageCreated, toWire(msg))
	}

	return msg, nil
}

type PageResult struct {
	Items      []*ListItem
	NextCursor string
}

func (s *Service) List(ctx context.Context, channelID, cursor string, limit int) (*PageResult, error) {
	viewer := identity.ViewerFromContext(ctx)
	if viewer == nil {
		return nil, errors.Unauthorized("user not authenticated")
	}

	ch, err := s.channels.GetScoped(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var cursorID *int64
	if cursor != "" {
		id, err := infra.ParseID(cursor)
		if err != nil {
			return nil, errors.BadRequest("invalid cursor")
		}
		cursorID = &id
	}

	msgs, err := s.repo.ListTopLevel(ctx, ch.ID, cursorID, limit)
	if err != nil {
		return nil, err
	}

	items, err := s.decorate(ctx, msgs, viewer.ID)
	if err != nil {
		return nil, err
	}

	result := &PageResult{Items: items}
	if len(msgs) == limit {
		result.NextCursor = infra.FormatID(msgs[len(msgs)-1].ID)
	}

	return result, nil
}

type ThreadResult struct {
	Parent   *ListItem
	Messages []*ListItem
}

func (s *Service) Thread(ctx context.Context, messageID string) (*ThreadResult, error) {
	viewer := identity.ViewerFromContext(ctx)
	if viewer == nil {
		return nil, errors.Unauthorized("user not authenticated")
	}

	parentID, err := infra.ParseID(messageID)
	if err != nil {
		return nil, errors.BadRequest("invalid message id")
	}

	parent, err := s.repo.GetScoped(ctx, parentID, viewer.WorkspaceID)
	if err != nil {
		return nil, err
	}

	replies, err := s.repo.ListThread(ctx, parentID)
	if err != nil {
		return nil, err
	}

	parentItems, err := s.decorate(ctx, []*Message{parent}, viewer.ID)
	if err != nil {
		return nil, err
	}

	replyItems, err := s.decorate(ctx, replies, viewer.ID)
	if err != nil {
		return nil, err
	}

	return &ThreadResult{
		Parent:   parentItems[0],
		Messages: replyItems,
	}, nil
}

type UpdateResult struct {
	Message *Message
	CanEdit bool
}

func (s *Service) Update(ctx context.Context, messageID, content string) (*UpdateResult, error) {
	viewer := identity.ViewerFromContext(ctx)
	if viewer == nil {
		return nil, errors.Unauthorized("user not authenticated")
	}

	if content == "" {
		return nil, errors.BadRequest("content is required")
	}

	id, err := infra.ParseID(messageID)
	if err != nil {
		return nil, errors.BadRequest("invalid message id")
	}

	msg, err := s.repo.GetScoped(ctx, id, viewer.WorkspaceID)
	if err != nil {
		return nil, err
	}

	if msg.AuthorID != viewer.ID {
		return nil, errors.Forbidden("can only edit own messages")
	}

	updated, err := s.repo.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Log(ctx, audit.Event{
			UserID:       viewer.ID,
			Action:       "message.update",
			ResourceID:   updated.PublicID(),
			ResourceType: "message",
		})
	}

	if s.hub != nil {
		s.hub.Broadcast(updated.ChannelID.String(), events.EventMessageEdited, toWire(updated))
	}

	return &UpdateResult{
		Message: updated,
		CanEdit: updated.AuthorID == viewer.ID,
	}, nil
}

type ToggleResult struct {
	MessageID string
	Reactions []reactions.Grouped
}

func (s *Service) ToggleReaction(ctx context.Context, messageID, emoji string) (*ToggleResult, error) {
	viewer := identity.ViewerFromContext(ctx)
	if viewer == nil {
		return nil, errors.Unauthorized("user not authenticated")
	}

	if emoji == "" {
		return nil, errors.BadRequest("emoji is required")
	}

	id, err := infra.ParseID(messageID)
	if err != nil {
		return nil, errors.BadRequest("invalid message id")
	}

	msg, err := s.repo.GetScoped(ctx, id, viewer.WorkspaceID)
	if err != nil {
		return nil, err
	}

	added, err := s.repo.ToggleReaction(ctx, id, viewer.ID, emoji)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ReactionRows(ctx, []int64{id})
	if err != nil {
		return nil, err
	}

	grouped := reactions.Group(rows[id], viewer.ID)

	if s.audit != nil {
		action := "reaction.remove"
		if added {
			action = "reaction.add"
		}
		_ = s.audit.Log(ctx, audit.Event{
			UserID:       viewer.ID,
			Action:       action,
			ResourceID:   messageID,
			ResourceType: "message",
			Metadata:     map[string]interface{}{"emoji": emoji},
		})
	}

	if s.hub != nil {
		s.hub.Broadcast(msg.ChannelID.String(), events.EventReactionUpdated, map[string]interface{}{
			"messageId": messageID,
			"reactions": grouped,
		})
	}

	return &ToggleResult{
		MessageID: messageID,
		Reactions: grouped,
	}, nil
}

// decorate attaches the derived ListItem fields to a batch of messages
// with two grouped queries instead of one per row.
func (s *Service) decorate(ctx context.Context, msgs []*Message, viewerID string) ([]*ListItem, error) {
	ids := make([]int64, len(msgs))
	for i, msg := range msgs {
		ids[i] = msg.ID
	}

	counts, err := s.repo.ReplyCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	reactionRows, err := s.repo.ReactionRows(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]*ListItem, len(msgs))
	for i, msg := range msgs {
		items[i] = &ListItem{
			Message:      *msg,
			RepliesCount: counts[msg.ID],
			Reactions:    reactions.Group(reactionRows[msg.ID], viewerID),
		}
	}

	return items, nil
}
