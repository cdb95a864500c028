package channels

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/identity"
	"github.com/huddle-chat/huddle/internal/workspaces"
)

const maxNameLength = 50

type Service struct {
	repo       *Repository
	workspaces *workspaces.Service
}

func NewService(repo *Repository, workspaces *workspaces.Service) *Service {
	return &Service{
		repo:       repo,
		workspaces: workspaces,
	}
}

func (s *Service) Create(ctx context.Context, name string) (*Channel, error) {
	viewer := identity.ViewerFromContext(ctx)
	if viewer == nil {
		return nil, errors.Unauthorized("user not authenticated")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.BadRequest("name is required")
	}
	if len(name) > maxNameLength {
		return nil, errors.BadRequest("name too long")
	}

	ch := &Channel{
		WorkspaceID: viewer.WorkspaceID,
		Name:        name,
		CreatedBy:   viewer.ID,
	}

	if err := s.repo.Create(ctx, ch); err != nil {
		return nil, err
	}

	return ch, nil
}

func (s *Service) List(ctx context.Context) ([]*Channel, []*workspaces.Member, error) {
	viewer := identity.ViewerFromContext(ctx)
	if viewer == nil {
		return nil, nil, errors.Unauthorized("user not authenticated")
	}

	channels, err := s.repo.ListByWorkspace(ctx, viewer.WorkspaceID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.workspaces.ListMembers(ctx, viewer.WorkspaceID)
	if err != nil {
		return nil, nil, err
	}

	return channels, members, nil
}

// GetScoped resolves a channel inside the viewer's workspace, mapping a
// cross-workspace id to Forbidden rather than NotFound so probing ids does
// not reveal existence.
func (s *Service) GetScoped(ctx context.Context, channelID string) (*Channel, error) {
	viewer := identity.ViewerFromContext(ctx)
	if viewer == nil {
		return nil, errors.Unauthorized("user not authenticated")
	}

	id, err := uuid.Parse(channelID)
	if err != nil {
		return nil, errors.BadRequest("invalid channel id")
	}

	ch, err := s.repo.GetScoped(ctx, id, viewer.WorkspaceID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Forbidden("channel not accessible")
		}
		return nil, err
	}

	return ch, nil
}
