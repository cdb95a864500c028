package identity

import "context"

// Viewer is the authenticated user as seen by the rest of the system.
// Profile fields are a snapshot from the identity provider's token; they
// populate optimistic-message author fields and reactedByMe computation.
type Viewer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl"`
	WorkspaceID string `json:"workspaceId"`
}

type contextKey string

const viewerKey contextKey = "viewer"

func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

func ViewerFromContext(ctx context.Context) *Viewer {
	if v, ok := ctx.Value(viewerKey).(*Viewer); ok {
		return v
	}
	return nil
}
