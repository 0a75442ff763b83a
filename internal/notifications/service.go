package notifications

import (
	"context"
	"log/slog"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/crypto"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/posts"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// PostSource supplies the audience for a fanout: the post's author and
// everyone who commented. posts.Repository satisfies it.
type PostSource interface {
	GetPost(ctx context.Context, id string) (*posts.Post, error)
	CommenterIDs(ctx context.Context, postID string) ([]string, error)
}

// Service handles notification reads and the fanout write path.
type Service struct {
	repo   Repository
	source PostSource
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, source PostSource, logger *slog.Logger) *Service {
	return &Service{repo: repo, source: source, logger: logger}
}

// List returns a page of the user's notifications.
func (s *Service) List(ctx context.Context, userID string, page, perPage int) ([]Notification, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListForUser(ctx, userID, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// MarkRead flags one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkAllRead flags all of the user's notifications as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// Fanout writes one notification per audience member for a wall event.
// The audience is the post author plus prior commenters, minus the actor
// who caused the event. Run by the background worker.
func (s *Service) Fanout(ctx context.Context, kind, postID, actorID string) (int, error) {
	post, err := s.source.GetPost(ctx, postID)
	if err != nil {
		// The post may be gone by the time the task runs; nothing to do.
		if shared.IsKind(err, shared.KindNotFound) {
			return 0, nil
		}
		return 0, err
	}
	commenters, err := s.source.CommenterIDs(ctx, postID)
	if err != nil {
		return 0, err
	}

	audience := make(map[string]struct{}, len(commenters)+1)
	audience[post.AuthorID] = struct{}{}
	for _, id := range commenters {
		audience[id] = struct{}{}
	}
	delete(audience, actorID)

	batch := make([]*Notification, 0, len(audience))
	for userID := range audience {
		id, err := crypto.UUID()
		if err != nil {
			return 0, shared.Internal(err)
		}
		batch = append(batch, &Notification{
			ID:      id,
			UserID:  userID,
			Kind:    kind,
			ActorID: actorID,
			PostID:  postID,
			Message: fanoutMessage(kind, userID == post.AuthorID),
		})
	}
	if err := s.repo.InsertBatch(ctx, batch); err != nil {
		return 0, err
	}
	s.logger.Debug("notification fanout", "kind", kind, "post", postID, "written", len(batch))
	return len(batch), nil
}

func fanoutMessage(kind string, isAuthor bool) string {
	switch kind {
	case "comment":
		if isAuthor {
			return "Someone commented on your post"
		}
		return "New comment on a post you follow"
	case "reaction":
		if isAuthor {
			return "Someone reacted to your post"
		}
		return "New reaction on a post you follow"
	default:
		return "New activity on a post you follow"
	}
}
