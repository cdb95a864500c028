package workspaces

import (
	"context"
	"fmt"
	"time"

	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/identity"
	"github.com/huddle-chat/huddle/internal/infra/cache"
)

const membershipTTL = 30 * time.Second

type Service struct {
	repo  *Repository
	cache *cache.AsidePattern
}

func NewService(repo *Repository, aside *cache.AsidePattern) *Service {
	return &Service{
		repo:  repo,
		cache: aside,
	}
}

// EnsureMember records the viewer in their token's workspace. The identity
// provider is the source of truth for org membership; this keeps the local
// snapshot fresh for member listings and author lookups.
func (s *Service) EnsureMember(ctx context.Context, viewer *identity.Viewer) error {
	if viewer == nil {
		return errors.Unauthorized("user not authenticated")
	}

	if err := s.repo.Upsert(ctx, &Workspace{ID: viewer.WorkspaceID, Name: viewer.WorkspaceID}); err != nil {
		return err
	}

	if err := s.repo.UpsertMember(ctx, &Member{
		WorkspaceID: viewer.WorkspaceID,
		UserID:      viewer.ID,
		UserName:    viewer.Name,
		UserEmail:   viewer.Email,
		UserAvatar:  viewer.AvatarURL,
	}); err != nil {
		return err
	}

	// Drop a possibly cached negative answer so the new member is
	// visible to IsMember immediately.
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, MembershipKey(viewer.WorkspaceID, viewer.ID))
	}
	return nil
}

// IsMember answers whether userID belongs to workspaceID, via cache-aside.
func (s *Service) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	key := MembershipKey(workspaceID, userID)

	loader := func() (interface{}, error) {
		_, err := s.repo.GetMember(ctx, workspaceID, userID)
		if err != nil {
			if errors.IsNotFound(err) {
				return false, nil
			}
			return nil, err
		}
		return true, nil
	}

	if s.cache != nil {
		v, err := s.cache.GetOrLoad(ctx, key, membershipTTL, loader)
		if err == nil {
			if b, ok := v.(bool); ok {
				return b, nil
			}
		}
	}

	_, err := s.repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) ListMembers(ctx context.Context, workspaceID string) ([]*Member, error) {
	return s.repo.ListMembers(ctx, workspaceID)
}

func (s *Service) Get(ctx context.Context, workspaceID string) (*Workspace, error) {
	return s.repo.GetByID(ctx, workspaceID)
}

func MembershipKey(workspaceID, userID string) string {
	return fmt.Sprintf("m:%s:%s", workspaceID, userID)
}
