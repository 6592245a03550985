package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryohq/tryo-api/internal/application"
	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/internal/domain/repository"
	"github.com/tryohq/tryo-api/internal/llm"
	"github.com/tryohq/tryo-api/pkg/helpers"
)

type stubUserRepo struct {
	mu        sync.Mutex
	records   map[string]*entity.UserRecord
	blacklist map[string]bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{records: make(map[string]*entity.UserRecord), blacklist: make(map[string]bool)}
}

func (s *stubUserRepo) key(p entity.Provider, pid string) string { return string(p) + "|" + pid }

func (s *stubUserRepo) FindByIdentity(_ context.Context, p entity.Provider, pid string) (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.records[s.key(p, pid)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.records {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubUserRepo) FindByName(_ context.Context, name string) (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.records {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubUserRepo) Upsert(_ context.Context, rec *entity.UserRecord) (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blacklist[rec.ProviderID] {
		return nil, repository.ErrIdentityBlacklisted
	}
	k := s.key(rec.Provider, rec.ProviderID)
	now := time.Now().UTC()
	if existing, ok := s.records[k]; ok {
		merged := *rec
		merged.ID = existing.ID
		merged.CreatedAt = existing.CreatedAt
		merged.UpdatedAt = now.Add(time.Millisecond)
		s.records[k] = &merged
		cp := merged
		return &cp, nil
	}
	fresh := *rec
	fresh.CreatedAt = now
	fresh.UpdatedAt = now
	s.records[k] = &fresh
	cp := fresh
	return &cp, nil
}

func (s *stubUserRepo) Delete(_ context.Context, p entity.Provider, pid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(p, pid)
	_, existed := s.records[k]
	delete(s.records, k)
	if existed {
		s.blacklist[pid] = true
	}
	return existed, nil
}

func (s *stubUserRepo) IsBlacklisted(_ context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklist[identifier], nil
}

func (s *stubUserRepo) AddToBlacklist(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[identifier] = true
	return nil
}

func testJWT() *helpers.JWTManager {
	return helpers.NewJWTManager("test-access", "test-refresh", time.Hour, 24*time.Hour)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// asUser simulates the auth middleware for protected routes.
func asUser(id, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Set("userName", name)
		c.Next()
	}
}

func newAuthRouter(repo repository.UserRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := application.NewIdentityService(repo, nil, testJWT(), nil, nil, "", nil, nil, false)
	h := NewAuthHandler(svc, nil, "localhost", false)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/resolve", h.Resolve)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResolveEndpointUnknown(t *testing.T) {
	r := newAuthRouter(newStubUserRepo())

	w := postJSON(r, "/api/auth/resolve", gin.H{"provider": "google", "identifier": "new@tryo.dev"})
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	var data struct {
		Found          bool   `json:"found"`
		RegistrationID string `json:"registration_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.False(t, data.Found)
	assert.NotEmpty(t, data.RegistrationID)
}

func TestResolveEndpointRejectsBadProvider(t *testing.T) {
	r := newAuthRouter(newStubUserRepo())

	w := postJSON(r, "/api/auth/resolve", gin.H{"provider": "github", "identifier": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterThenResolve(t *testing.T) {
	repo := newStubUserRepo()
	r := newAuthRouter(repo)

	w := postJSON(r, "/api/auth/register", gin.H{
		"id": "reg-1", "name": "Ada", "provider": "google", "provider_id": "ada@tryo.dev",
		"bio": "building things",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	cookies := w.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "access_token")
	assert.Contains(t, names, "refresh_token")

	w = postJSON(r, "/api/auth/resolve", gin.H{"provider": "google", "identifier": "ada@tryo.dev"})
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var data struct {
		Found   bool               `json:"found"`
		Profile *entity.UserRecord `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Found)
	require.NotNil(t, data.Profile)
	assert.Equal(t, "Ada", data.Profile.Name)
}

func TestRegisterBlacklistedIdentity(t *testing.T) {
	repo := newStubUserRepo()
	repo.blacklist["ada@tryo.dev"] = true
	r := newAuthRouter(repo)

	w := postJSON(r, "/api/auth/register", gin.H{
		"id": "reg-1", "name": "Ada", "provider": "google", "provider_id": "ada@tryo.dev",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginEndpointUnknownUser(t *testing.T) {
	r := newAuthRouter(newStubUserRepo())

	w := postJSON(r, "/api/auth/login", gin.H{"provider": "google", "identifier": "ghost@tryo.dev"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfileFullReplace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newStubUserRepo()
	svc := application.NewIdentityService(repo, nil, testJWT(), nil, nil, "", nil, nil, false)

	seed, err := svc.UpsertProfile(context.Background(), entity.UserRecord{
		ID: "u1", Name: "Ada", Provider: entity.ProviderGoogle, ProviderID: "ada@tryo.dev", Bio: "old bio",
	})
	require.NoError(t, err)

	h := NewUserHandler(svc, nil)
	r := gin.New()
	r.PUT("/api/profile", asUser(seed.ID, seed.Name), h.UpdateProfile)

	// The update omits bio entirely: it must clear, and the stored id must win.
	w := postPut(r, "/api/profile", gin.H{
		"id": "client-made-up", "name": "Ada Lovelace", "provider": "google", "provider_id": "ada@tryo.dev",
	})
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var got entity.UserRecord
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, seed.ID, got.ID)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Empty(t, got.Bio)
}

func postPut(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublicProfileEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newStubUserRepo()
	svc := application.NewIdentityService(repo, nil, testJWT(), nil, nil, "", nil, nil, false)
	_, err := svc.UpsertProfile(context.Background(), entity.UserRecord{
		ID: "u1", Name: "Ada", Provider: entity.ProviderGoogle, ProviderID: "ada@tryo.dev",
		PhoneNumber: "+4915112345678",
	})
	require.NoError(t, err)

	h := NewUserHandler(svc, nil)
	r := gin.New()
	r.GET("/api/profiles/:name", h.PublicProfile)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profiles/Ada", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "+4915112345678")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profiles/Nobody", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stubPostRepo struct {
	posts []entity.ProjectPost
}

func (s *stubPostRepo) Create(_ context.Context, p *entity.ProjectPost) error {
	s.posts = append(s.posts, *p)
	return nil
}

func (s *stubPostRepo) GetByID(_ context.Context, id string) (*entity.ProjectPost, error) {
	for i := range s.posts {
		if s.posts[i].ID == id {
			cp := s.posts[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubPostRepo) List(_ context.Context, f repository.PostFilter) ([]entity.ProjectPost, error) {
	var out []entity.ProjectPost
	for _, p := range s.posts {
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

func (s *stubPostRepo) SearchText(_ context.Context, q string, _ int) ([]entity.ProjectPost, error) {
	var out []entity.ProjectPost
	for _, p := range s.posts {
		if strings.Contains(strings.ToLower(p.ProjectName), strings.ToLower(q)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func newPostRouter(repo repository.PostRepository, enhancer llm.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := application.NewPostService(repo, nil, "", enhancer, nil)
	h := NewPostHandler(svc, nil)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/posts", h.List)
	api.GET("/posts/search", h.Search)
	api.GET("/posts/:id", h.Get)
	api.POST("/posts", asUser("u1", "Ada"), h.Create)
	api.POST("/posts/enhance", asUser("u1", "Ada"), h.Enhance)
	return r
}

func TestCreateAndListPosts(t *testing.T) {
	repo := &stubPostRepo{}
	r := newPostRouter(repo, nil)

	w := postJSON(r, "/api/posts", gin.H{
		"project_name": "Billsplit",
		"description":  "Splitting bills without spreadsheets.",
		"field":        "Fintech",
		"roles":        []string{"Backend Engineer"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	var created entity.ProjectPost
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Ada", created.FounderName, "founder comes from the session, not the payload")
	assert.NotEmpty(t, created.ID)

	lw := httptest.NewRecorder()
	r.ServeHTTP(lw, httptest.NewRequest(http.MethodGet, "/api/posts?field=Fintech", nil))
	require.Equal(t, http.StatusOK, lw.Code)
	lenv := decodeEnvelope(t, lw)
	var posts []entity.ProjectPost
	require.NoError(t, json.Unmarshal(lenv.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, created.ID, posts[0].ID)
}

func TestGetPostNotFound(t *testing.T) {
	r := newPostRouter(&stubPostRepo{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnhanceEndpointFallsBack(t *testing.T) {
	r := newPostRouter(&stubPostRepo{}, &llm.MockClient{Err: context.DeadlineExceeded})

	w := postJSON(r, "/api/posts/enhance", gin.H{"description": "my rough pitch"})
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var data struct {
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "my rough pitch", data.Description)
}
