package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/internal/domain/repository"
	"github.com/tryohq/tryo-api/internal/llm"
)

var ErrInvalidPost = errors.New("invalid post")

// trendingWindow bounds the "trending" listing to recent posts.
const trendingWindow = 7 * 24 * time.Hour

// PostService handles the project board: creation, listing, search and the
// description enhancement pass-through.
type PostService struct {
	Repo     repository.PostRepository
	ES       *elasticsearch.Client
	ESIndex  string
	Enhancer llm.Client
	Logger   *logrus.Logger
}

func NewPostService(repo repository.PostRepository, es *elasticsearch.Client, esIndex string, enhancer llm.Client, logger *logrus.Logger) *PostService {
	return &PostService{Repo: repo, ES: es, ESIndex: esIndex, Enhancer: enhancer, Logger: logger}
}

type CreatePostInput struct {
	FounderName  string
	ProjectName  string
	Deadline     string
	Description  string
	ImageURL     string
	Field        entity.ProjectField
	Stage        entity.ProjectStage
	Compensation string
	Roles        []string
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*entity.ProjectPost, error) {
	in.ProjectName = strings.TrimSpace(in.ProjectName)
	in.Description = strings.TrimSpace(in.Description)
	if in.FounderName == "" || in.ProjectName == "" || in.Description == "" {
		return nil, ErrInvalidPost
	}
	if in.Field == "" {
		in.Field = entity.FieldOther
	}
	if in.Stage == "" {
		in.Stage = entity.StageIdea
	}

	post := &entity.ProjectPost{
		ID:           xid.New().String(),
		FounderName:  in.FounderName,
		ProjectName:  in.ProjectName,
		PostedDate:   time.Now().UTC(),
		Deadline:     in.Deadline,
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		Field:        in.Field,
		Stage:        in.Stage,
		Compensation: in.Compensation,
		Roles:        in.Roles,
	}
	if err := s.Repo.Create(ctx, post); err != nil {
		return nil, err
	}
	// Best effort; the board works without search.
	_ = s.indexPost(ctx, post)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*entity.ProjectPost, error) {
	return s.Repo.GetByID(ctx, id)
}

// ListPosts returns the board feed, newest first. trending restricts the feed
// to the recent window.
func (s *PostService) ListPosts(ctx context.Context, field entity.ProjectField, trending bool, limit int) ([]entity.ProjectPost, error) {
	f := repository.PostFilter{Field: field, Limit: limit}
	if trending {
		f.PostedAfter = time.Now().UTC().Add(-trendingWindow)
	}
	return s.Repo.List(ctx, f)
}

// SearchPosts queries Elasticsearch when configured and falls back to a plain
// substring search in Postgres otherwise.
func (s *PostService) SearchPosts(ctx context.Context, q string, size int) ([]entity.ProjectPost, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []entity.ProjectPost{}, nil
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	if s.ES == nil || s.ESIndex == "" {
		return s.Repo.SearchText(ctx, q, size)
	}

	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"project_name^2", "description", "roles"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("es search failed, falling back to sql")
		}
		return s.Repo.SearchText(ctx, q, size)
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source entity.ProjectPost `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.ProjectPost, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

const enhancePrompt = `You are an expert startup copywriter.
Rewrite the following project description to be more exciting, clear, and appealing to early-stage builders.
Keep it under 280 characters if possible, or short and punchy.
Use emojis sparingly but effectively.

Original Description: %q

Return ONLY the rewritten text.`

// EnhanceDescription runs the description through the model. The model is an
// optional collaborator: on any failure the original text comes back unchanged.
func (s *PostService) EnhanceDescription(ctx context.Context, description string) string {
	if s.Enhancer == nil || strings.TrimSpace(description) == "" {
		return description
	}
	prompt := fmt.Sprintf(enhancePrompt, description)
	out, err := s.Enhancer.Generate(ctx, prompt)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("description enhancement failed")
		}
		return description
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return description
	}
	return out
}

func (s *PostService) indexPost(ctx context.Context, p *entity.ProjectPost) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	b, _ := json.Marshal(p)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("post_id", p.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("post_id", p.ID).Warn("es index response error")
	}
	return nil
}
