package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/internal/domain/repository"
	"github.com/tryohq/tryo-api/internal/llm"
)

type memPostRepo struct {
	posts      []entity.ProjectPost
	lastFilter repository.PostFilter
	searched   string
}

func (m *memPostRepo) Create(_ context.Context, p *entity.ProjectPost) error {
	m.posts = append(m.posts, *p)
	return nil
}

func (m *memPostRepo) GetByID(_ context.Context, id string) (*entity.ProjectPost, error) {
	for i := range m.posts {
		if m.posts[i].ID == id {
			cp := m.posts[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPostRepo) List(_ context.Context, f repository.PostFilter) ([]entity.ProjectPost, error) {
	m.lastFilter = f
	var out []entity.ProjectPost
	for _, p := range m.posts {
		if f.Field != "" && p.Field != f.Field {
			continue
		}
		if !f.PostedAfter.IsZero() && p.PostedDate.Before(f.PostedAfter) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memPostRepo) SearchText(_ context.Context, q string, _ int) ([]entity.ProjectPost, error) {
	m.searched = q
	var out []entity.ProjectPost
	for _, p := range m.posts {
		if strings.Contains(strings.ToLower(p.ProjectName), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestCreatePostDefaults(t *testing.T) {
	repo := &memPostRepo{}
	svc := NewPostService(repo, nil, "", nil, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		FounderName: "Ada",
		ProjectName: "Billsplit",
		Description: "Splitting bills without spreadsheets.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, entity.FieldOther, post.Field)
	assert.Equal(t, entity.StageIdea, post.Stage)
	assert.WithinDuration(t, time.Now().UTC(), post.PostedDate, 5*time.Second)
	require.Len(t, repo.posts, 1)
}

func TestCreatePostInvalid(t *testing.T) {
	svc := NewPostService(&memPostRepo{}, nil, "", nil, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{FounderName: "Ada"})
	assert.ErrorIs(t, err, ErrInvalidPost)

	_, err = svc.CreatePost(context.Background(), CreatePostInput{ProjectName: "x", Description: "y"})
	assert.ErrorIs(t, err, ErrInvalidPost)
}

func TestListTrendingRestrictsWindow(t *testing.T) {
	repo := &memPostRepo{posts: []entity.ProjectPost{
		{ID: "new", ProjectName: "Fresh", Field: entity.FieldFintech, PostedDate: time.Now().UTC().Add(-24 * time.Hour)},
		{ID: "old", ProjectName: "Stale", Field: entity.FieldFintech, PostedDate: time.Now().UTC().Add(-30 * 24 * time.Hour)},
	}}
	svc := NewPostService(repo, nil, "", nil, nil)

	posts, err := svc.ListPosts(context.Background(), "", true, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "new", posts[0].ID)
	assert.False(t, repo.lastFilter.PostedAfter.IsZero())

	posts, err = svc.ListPosts(context.Background(), "", false, 10)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.True(t, repo.lastFilter.PostedAfter.IsZero())
}

func TestListFiltersByField(t *testing.T) {
	repo := &memPostRepo{posts: []entity.ProjectPost{
		{ID: "a", Field: entity.FieldAI, PostedDate: time.Now().UTC()},
		{ID: "b", Field: entity.FieldFintech, PostedDate: time.Now().UTC()},
	}}
	svc := NewPostService(repo, nil, "", nil, nil)

	posts, err := svc.ListPosts(context.Background(), entity.FieldAI, false, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "a", posts[0].ID)
}

func TestSearchFallsBackWithoutES(t *testing.T) {
	repo := &memPostRepo{posts: []entity.ProjectPost{
		{ID: "a", ProjectName: "Billsplit", PostedDate: time.Now().UTC()},
	}}
	svc := NewPostService(repo, nil, "", nil, nil)

	posts, err := svc.SearchPosts(context.Background(), "bill", 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "bill", repo.searched)
}

func TestSearchEmptyQuery(t *testing.T) {
	repo := &memPostRepo{}
	svc := NewPostService(repo, nil, "", nil, nil)

	posts, err := svc.SearchPosts(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Empty(t, repo.searched, "repo must not be hit for empty queries")
}

func TestEnhanceDescription(t *testing.T) {
	svc := NewPostService(&memPostRepo{}, nil, "", &llm.MockClient{Response: "  A sharper pitch.  "}, nil)
	out := svc.EnhanceDescription(context.Background(), "my rough pitch")
	assert.Equal(t, "A sharper pitch.", out)
}

func TestEnhanceFallsBackToOriginal(t *testing.T) {
	original := "my rough pitch"

	// Model failure.
	svc := NewPostService(&memPostRepo{}, nil, "", &llm.MockClient{Err: errors.New("rate limited")}, nil)
	assert.Equal(t, original, svc.EnhanceDescription(context.Background(), original))

	// Empty model output.
	svc = NewPostService(&memPostRepo{}, nil, "", &llm.MockClient{Response: "   "}, nil)
	assert.Equal(t, original, svc.EnhanceDescription(context.Background(), original))

	// No client configured at all.
	svc = NewPostService(&memPostRepo{}, nil, "", nil, nil)
	assert.Equal(t, original, svc.EnhanceDescription(context.Background(), original))
}
