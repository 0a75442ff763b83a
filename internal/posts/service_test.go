package posts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

type stubRepo struct {
	posts     map[string]*Post
	comments  map[string]*Comment
	reactions map[string]*Reaction // keyed postID+"/"+userID
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		posts:     map[string]*Post{},
		comments:  map[string]*Comment{},
		reactions: map[string]*Reaction{},
	}
}

func (r *stubRepo) CreatePost(ctx context.Context, post *Post) error {
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	r.posts[post.ID] = post
	return nil
}

func (r *stubRepo) GetPost(ctx context.Context, id string) (*Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, shared.NotFound("Resource not found")
	}
	clone := *post
	return &clone, nil
}

func (r *stubRepo) ListPosts(ctx context.Context, page shared.Pagination) ([]Post, int, error) {
	items := make([]Post, 0, len(r.posts))
	for _, p := range r.posts {
		items = append(items, *p)
	}
	return items, len(items), nil
}

func (r *stubRepo) UpdatePost(ctx context.Context, id, title, body string) (*Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, shared.NotFound("Resource not found")
	}
	post.Title, post.Body = title, body
	clone := *post
	return &clone, nil
}

func (r *stubRepo) SetPinned(ctx context.Context, id string, pinned bool) (*Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, shared.NotFound("Resource not found")
	}
	post.Pinned = pinned
	clone := *post
	return &clone, nil
}

func (r *stubRepo) DeletePost(ctx context.Context, id string) error {
	if _, ok := r.posts[id]; !ok {
		return shared.NotFound("Resource not found")
	}
	delete(r.posts, id)
	return nil
}

func (r *stubRepo) CreateComment(ctx context.Context, comment *Comment) error {
	comment.CreatedAt = time.Now()
	r.comments[comment.ID] = comment
	return nil
}

func (r *stubRepo) GetComment(ctx context.Context, id string) (*Comment, error) {
	comment, ok := r.comments[id]
	if !ok {
		return nil, shared.NotFound("Resource not found")
	}
	clone := *comment
	return &clone, nil
}

func (r *stubRepo) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	var out []Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubRepo) DeleteComment(ctx context.Context, id string) error {
	if _, ok := r.comments[id]; !ok {
		return shared.NotFound("Resource not found")
	}
	delete(r.comments, id)
	return nil
}

func (r *stubRepo) CommenterIDs(ctx context.Context, postID string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, c := range r.comments {
		if c.PostID != postID {
			continue
		}
		if _, dup := seen[c.AuthorID]; dup {
			continue
		}
		seen[c.AuthorID] = struct{}{}
		out = append(out, c.AuthorID)
	}
	return out, nil
}

func (r *stubRepo) PutReaction(ctx context.Context, reaction *Reaction) error {
	reaction.CreatedAt = time.Now()
	r.reactions[reaction.PostID+"/"+reaction.UserID] = reaction
	return nil
}

func (r *stubRepo) DeleteReaction(ctx context.Context, postID, userID string) error {
	delete(r.reactions, postID+"/"+userID)
	return nil
}

func (r *stubRepo) ListReactions(ctx context.Context, postID string) ([]Reaction, error) {
	var out []Reaction
	for _, re := range r.reactions {
		if re.PostID == postID {
			out = append(out, *re)
		}
	}
	return out, nil
}

type captureNotifier struct {
	events []string
}

func (n *captureNotifier) EnqueueNotifyFanout(ctx context.Context, kind, postID, actorID string) error {
	n.events = append(n.events, kind+":"+postID+":"+actorID)
	return nil
}

var (
	student      = auth.Identity{SubjectID: "student-1", Role: auth.RoleStudent}
	otherStudent = auth.Identity{SubjectID: "student-2", Role: auth.RoleStudent}
	teacher      = auth.Identity{SubjectID: "teacher-1", Role: auth.RoleTeacher}
	admin        = auth.Identity{SubjectID: "admin-1", Role: auth.RoleAdmin}
)

func testService(t *testing.T) (*Service, *stubRepo, *captureNotifier) {
	t.Helper()
	repo := newStubRepo()
	notifier := &captureNotifier{}
	logger := logging.New(logging.Config{Output: io.Discard})
	return NewService(repo, notifier, logger), repo, notifier
}

func mustCreate(t *testing.T, svc *Service, actor auth.Identity) *Post {
	t.Helper()
	post, err := svc.Create(context.Background(), actor, "Exam week", "Library open until midnight")
	require.NoError(t, err)
	return post
}

func TestCreateSetsAuthor(t *testing.T) {
	svc, _, _ := testService(t)

	post := mustCreate(t, svc, student)

	assert.Equal(t, student.SubjectID, post.AuthorID)
	assert.NotEmpty(t, post.ID)
	assert.False(t, post.Pinned)
}

func TestUpdateOwnershipMatrix(t *testing.T) {
	cases := []struct {
		name  string
		actor auth.Identity
		ok    bool
	}{
		{"author edits own post", student, true},
		{"other student denied", otherStudent, false},
		{"teacher denied on foreign post", teacher, false},
		{"admin overrides", admin, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := testService(t)
			post := mustCreate(t, svc, student)

			updated, err := svc.Update(context.Background(), tc.actor, post.ID, "Edited", "New body")
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, "Edited", updated.Title)
				return
			}
			assert.True(t, shared.IsKind(err, shared.KindForbidden))
		})
	}
}

func TestDeleteOwnershipMatrix(t *testing.T) {
	svc, repo, _ := testService(t)
	post := mustCreate(t, svc, student)

	err := svc.Delete(context.Background(), otherStudent, post.ID)
	assert.True(t, shared.IsKind(err, shared.KindForbidden))
	assert.Len(t, repo.posts, 1)

	require.NoError(t, svc.Delete(context.Background(), admin, post.ID))
	assert.Empty(t, repo.posts)
}

func TestUpdateMissingPost(t *testing.T) {
	svc, _, _ := testService(t)

	_, err := svc.Update(context.Background(), admin, "nope", "t", "b")

	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestAddCommentQueuesFanout(t *testing.T) {
	svc, _, notifier := testService(t)
	post := mustCreate(t, svc, student)

	comment, err := svc.AddComment(context.Background(), otherStudent, post.ID, "See you there")

	require.NoError(t, err)
	assert.Equal(t, otherStudent.SubjectID, comment.AuthorID)
	assert.Equal(t, []string{"comment:" + post.ID + ":" + otherStudent.SubjectID}, notifier.events)
}

func TestAddCommentMissingPost(t *testing.T) {
	svc, _, notifier := testService(t)

	_, err := svc.AddComment(context.Background(), student, "nope", "hi")

	assert.True(t, shared.IsKind(err, shared.KindNotFound))
	assert.Empty(t, notifier.events)
}

func TestDeleteCommentOwnership(t *testing.T) {
	svc, repo, _ := testService(t)
	post := mustCreate(t, svc, student)
	comment, err := svc.AddComment(context.Background(), otherStudent, post.ID, "first")
	require.NoError(t, err)

	err = svc.DeleteComment(context.Background(), student, comment.ID)
	assert.True(t, shared.IsKind(err, shared.KindForbidden), "post author does not own the comment")

	require.NoError(t, svc.DeleteComment(context.Background(), otherStudent, comment.ID))
	assert.Empty(t, repo.comments)
}

func TestReactValidatesKind(t *testing.T) {
	svc, _, notifier := testService(t)
	post := mustCreate(t, svc, student)

	_, err := svc.React(context.Background(), otherStudent, post.ID, "explode")
	assert.True(t, shared.IsKind(err, shared.KindValidation))
	assert.Empty(t, notifier.events)

	reaction, err := svc.React(context.Background(), otherStudent, post.ID, "like")
	require.NoError(t, err)
	assert.Equal(t, "like", reaction.Kind)
	assert.Len(t, notifier.events, 1)
}

func TestReactReplacesExisting(t *testing.T) {
	svc, repo, _ := testService(t)
	post := mustCreate(t, svc, student)

	_, err := svc.React(context.Background(), otherStudent, post.ID, "like")
	require.NoError(t, err)
	_, err = svc.React(context.Background(), otherStudent, post.ID, "heart")
	require.NoError(t, err)

	reactions, err := repo.ListReactions(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, reactions, 1, "one reaction per user per post")
	assert.Equal(t, "heart", reactions[0].Kind)
}

func TestFanoutFailureDoesNotFailWrite(t *testing.T) {
	repo := newStubRepo()
	logger := logging.New(logging.Config{Output: io.Discard})
	svc := NewService(repo, failingNotifier{}, logger)
	post := mustCreate(t, svc, student)

	_, err := svc.AddComment(context.Background(), otherStudent, post.ID, "still lands")

	assert.NoError(t, err)
	assert.Len(t, repo.comments, 1)
}

type failingNotifier struct{}

func (failingNotifier) EnqueueNotifyFanout(ctx context.Context, kind, postID, actorID string) error {
	return context.DeadlineExceeded
}
