package posts

import (
	"context"
	"log/slog"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/crypto"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Notifier hands wall events to the background queue. Nil disables
// fanout (tests).
type Notifier interface {
	EnqueueNotifyFanout(ctx context.Context, kind, postID, actorID string) error
}

// Service wraps wall business rules. Route guards handle the coarse
// checks (authenticated, minimum role); authorship checks that need the
// stored row happen here.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Create publishes a post authored by the caller.
func (s *Service) Create(ctx context.Context, actor auth.Identity, title, body string) (*Post, error) {
	id, err := crypto.UUID()
	if err != nil {
		return nil, shared.Internal(err)
	}
	post := &Post{ID: id, AuthorID: actor.SubjectID, Title: title, Body: body}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// List returns a page of posts with pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Post, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListPosts(ctx, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// Get fetches one post.
func (s *Service) Get(ctx context.Context, id string) (*Post, error) {
	return s.repo.GetPost(ctx, id)
}

// Update edits a post. Only the author may edit; admins may too.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id, title, body string) (*Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.OwnsResource(actor, post.AuthorID, true) {
		return nil, shared.Forbidden("You do not own this post")
	}
	return s.repo.UpdatePost(ctx, id, title, body)
}

// Delete removes a post. Author or admin only.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id string) error {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !auth.OwnsResource(actor, post.AuthorID, true) {
		return shared.Forbidden("You do not own this post")
	}
	return s.repo.DeletePost(ctx, id)
}

// SetPinned pins or unpins a post. The route requires teacher or above.
func (s *Service) SetPinned(ctx context.Context, id string, pinned bool) (*Post, error) {
	return s.repo.SetPinned(ctx, id, pinned)
}

// AddComment attaches a comment and queues notification fanout.
func (s *Service) AddComment(ctx context.Context, actor auth.Identity, postID, body string) (*Comment, error) {
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	id, err := crypto.UUID()
	if err != nil {
		return nil, shared.Internal(err)
	}
	comment := &Comment{ID: id, PostID: postID, AuthorID: actor.SubjectID, Body: body}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	s.fanout(ctx, "comment", postID, actor.SubjectID)
	return comment, nil
}

// ListComments returns a post's comments.
func (s *Service) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, postID)
}

// DeleteComment removes a comment. The comment's author or an admin may
// delete; admins reach it through the moderation route as well.
func (s *Service) DeleteComment(ctx context.Context, actor auth.Identity, commentID string) error {
	comment, err := s.repo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !auth.OwnsResource(actor, comment.AuthorID, true) {
		return shared.Forbidden("You do not own this comment")
	}
	return s.repo.DeleteComment(ctx, commentID)
}

// React records or replaces the caller's reaction and queues fanout.
func (s *Service) React(ctx context.Context, actor auth.Identity, postID, kind string) (*Reaction, error) {
	if _, ok := ReactionKinds[kind]; !ok {
		return nil, shared.Validation("Unknown reaction").WithFields(shared.FieldError{Field: "kind", Message: "unsupported reaction kind"})
	}
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	reaction := &Reaction{PostID: postID, UserID: actor.SubjectID, Kind: kind}
	if err := s.repo.PutReaction(ctx, reaction); err != nil {
		return nil, err
	}
	s.fanout(ctx, "reaction", postID, actor.SubjectID)
	return reaction, nil
}

// Unreact removes the caller's reaction.
func (s *Service) Unreact(ctx context.Context, actor auth.Identity, postID string) error {
	return s.repo.DeleteReaction(ctx, postID, actor.SubjectID)
}

// ListReactions returns all reactions on a post.
func (s *Service) ListReactions(ctx context.Context, postID string) ([]Reaction, error) {
	return s.repo.ListReactions(ctx, postID)
}

// fanout is best-effort: a full queue must not fail the write that
// triggered it.
func (s *Service) fanout(ctx context.Context, kind, postID, actorID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.EnqueueNotifyFanout(ctx, kind, postID, actorID); err != nil {
		s.logger.Warn("enqueue notification fanout", "kind", kind, "post", postID, "error", err.Error())
	}
}
