package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tryohq/tryo-api/internal/domain/entity"
	"github.com/tryohq/tryo-api/internal/domain/repository"
	"github.com/tryohq/tryo-api/pkg/helpers"
)

var (
	// ErrIdentityBlacklisted is permanent: the identifier was revoked by an
	// account deletion and can never register again. Handlers must surface it
	// distinctly from retryable failures.
	ErrIdentityBlacklisted = errors.New("identity blacklisted")
	ErrInvalidProfile      = errors.New("invalid profile")
	ErrInvalidIdentity     = errors.New("invalid identity")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidSession      = errors.New("invalid session")
)

// IdentityVerifier answers "is this identifier genuinely owned by the caller"
// and returns the identifier in normalized form. The default implementation
// trusts the self-asserted value; a real OIDC token verifier can be dropped in
// without touching the resolver or the store.
type IdentityVerifier interface {
	Verify(ctx context.Context, provider entity.Provider, identifier string) (string, error)
}

type selfAssertedVerifier struct{}

// NewSelfAssertedVerifier returns the default verifier: shape checks and
// normalization only, no proof of ownership.
func NewSelfAssertedVerifier() IdentityVerifier { return selfAssertedVerifier{} }

func (selfAssertedVerifier) Verify(_ context.Context, provider entity.Provider, identifier string) (string, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return "", ErrInvalidIdentity
	}
	switch provider {
	case entity.ProviderGoogle:
		if !strings.Contains(id, "@") {
			return "", ErrInvalidIdentity
		}
		return strings.ToLower(id), nil
	case entity.ProviderFacebook:
		if !strings.HasPrefix(id, "http://") && !strings.HasPrefix(id, "https://") {
			return "", ErrInvalidIdentity
		}
		return id, nil
	default:
		return "", ErrInvalidIdentity
	}
}

// IdentityService coordinates identity resolution, profile upserts, account
// deletion and sessions.
type IdentityService struct {
	Repo      repository.UserRepository
	Verifier  IdentityVerifier
	JWT       *helpers.JWTManager
	Redis     *redis.Client
	GCS       *storage.Client
	GCSBucket string
	Pub       *helpers.RabbitPublisher
	Logger    *logrus.Logger

	MailEnabled bool
}

func NewIdentityService(repo repository.UserRepository, verifier IdentityVerifier, jwt *helpers.JWTManager, rdb *redis.Client, gcs *storage.Client, gcsBucket string, pub *helpers.RabbitPublisher, logger *logrus.Logger, mailEnabled bool) *IdentityService {
	if verifier == nil {
		verifier = NewSelfAssertedVerifier()
	}
	return &IdentityService{
		Repo:        repo,
		Verifier:    verifier,
		JWT:         jwt,
		Redis:       rdb,
		GCS:         gcs,
		GCSBucket:   gcsBucket,
		Pub:         pub,
		Logger:      logger,
		MailEnabled: mailEnabled,
	}
}

// Resolution is the outcome of an identity lookup. When no record exists,
// RegistrationID carries a freshly allocated id for the prospective record so
// files uploaded mid-wizard can be tied to the final identity before anything
// is persisted.
type Resolution struct {
	Found          bool
	Profile        *entity.UserRecord
	RegistrationID string
}

func sessionKey(userID string) string     { return "user:session:" + userID }
func publicProfileKey(name string) string { return "profile:public:" + name }

// staleProfileCacheKeys lists the cache entries an upsert invalidates: the
// stored name, plus the previous one when the write renamed the user.
func staleProfileCacheKeys(priorName, storedName string) []string {
	keys := []string{publicProfileKey(storedName)}
	if priorName != "" && priorName != storedName {
		keys = append(keys, publicProfileKey(priorName))
	}
	return keys
}

const publicProfileTTL = time.Minute

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Resolve decides whether the identifier belongs to a returning user.
// Store read failures degrade to not-found rather than failing the request;
// the store stays available but may temporarily forget users. Write paths do
// not share this leniency.
func (s *IdentityService) Resolve(ctx context.Context, provider entity.Provider, identifier string) (Resolution, error) {
	if !provider.Valid() {
		return Resolution{}, ErrInvalidIdentity
	}
	id, err := s.Verifier.Verify(ctx, provider, identifier)
	if err != nil {
		return Resolution{}, ErrInvalidIdentity
	}

	u, err := s.Repo.FindByIdentity(ctx, provider, id)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{
				"provider": provider,
			}).Warn("identity lookup failed, treating as not found")
		}
		u = nil
	}
	if u != nil {
		return Resolution{Found: true, Profile: u}, nil
	}
	return Resolution{RegistrationID: uuid.NewString()}, nil
}

// Login confirms the "continue as {name}" path: the stored record is reused
// as-is, no upsert runs.
func (s *IdentityService) Login(ctx context.Context, provider entity.Provider, identifier string) (*entity.UserRecord, error) {
	if !provider.Valid() {
		return nil, ErrInvalidIdentity
	}
	id, err := s.Verifier.Verify(ctx, provider, identifier)
	if err != nil {
		return nil, ErrInvalidIdentity
	}
	u, err := s.Repo.FindByIdentity(ctx, provider, id)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{
				"provider": provider,
			}).Warn("identity lookup failed, treating as not found")
		}
		u = nil
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpsertProfile is the single write path for profiles. The request carries a
// complete candidate record, not a patch: every incoming field replaces the
// stored one, empty values clearing it. Identity is matched on
// (provider, provider_id), never on the client-chosen id; the returned record
// is authoritative and the caller must persist it instead of its own draft.
func (s *IdentityService) UpsertProfile(ctx context.Context, rec entity.UserRecord) (*entity.UserRecord, error) {
	if err := validateProfile(&rec); err != nil {
		return nil, err
	}
	id, err := s.Verifier.Verify(ctx, rec.Provider, rec.ProviderID)
	if err != nil {
		return nil, ErrInvalidProfile
	}
	rec.ProviderID = id
	rec.Links = normalizeLinks(rec.Links)

	// A rename leaves the previous name's cached public profile behind, so the
	// prior record is read first to know which keys the write makes stale.
	var priorName string
	if s.Redis != nil {
		if prior, err := s.Repo.FindByIdentity(ctx, rec.Provider, rec.ProviderID); err == nil && prior != nil {
			priorName = prior.Name
		}
	}

	stored, err := s.Repo.Upsert(ctx, &rec)
	if err != nil {
		if errors.Is(err, repository.ErrIdentityBlacklisted) {
			return nil, ErrIdentityBlacklisted
		}
		return nil, err
	}

	if s.Redis != nil {
		for _, key := range staleProfileCacheKeys(priorName, stored.Name) {
			if err := helpers.RedisDel(ctx, s.Redis, key); err != nil && s.Logger != nil {
				s.Logger.WithError(err).Warn("public profile cache invalidation failed")
			}
		}
	}

	// First write sets created_at == updated_at; any later merge moves only
	// updated_at.
	if stored.UpdatedAt.Equal(stored.CreatedAt) {
		s.enqueueWelcomeEmail(ctx, stored)
	}
	return stored, nil
}

// DeleteAccount removes the record and blacklists the identifier (one
// transaction, see repository.UserRepository.Delete), then drops the session.
func (s *IdentityService) DeleteAccount(ctx context.Context, provider entity.Provider, identifier string) (bool, error) {
	if !provider.Valid() {
		return false, ErrInvalidIdentity
	}
	id, err := s.Verifier.Verify(ctx, provider, identifier)
	if err != nil {
		return false, ErrInvalidIdentity
	}

	u, err := s.Repo.FindByIdentity(ctx, provider, id)
	if err != nil {
		return false, err
	}

	deleted, err := s.Repo.Delete(ctx, provider, id)
	if err != nil {
		return false, err
	}
	if deleted && u != nil && s.Redis != nil {
		if err := s.Redis.Del(ctx, sessionKey(u.ID), publicProfileKey(u.Name)).Err(); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("session cleanup failed")
		}
	}
	return deleted, nil
}

// GetProfile returns the stored record for a session's user id.
func (s *IdentityService) GetProfile(ctx context.Context, userID string) (*entity.UserRecord, error) {
	rec, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}
	return rec, nil
}

// PublicProfileByName serves the post-card author lookup. Display only: names
// are not unique and the result may belong to a different user with the same
// display name. Read failures degrade to not-found.
func (s *IdentityService) PublicProfileByName(ctx context.Context, name string) (*entity.PublicProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if s.Redis != nil {
		var cached entity.PublicProfile
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, publicProfileKey(name), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	u, err := s.Repo.FindByName(ctx, name)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("profile lookup failed, treating as not found")
		}
		return nil, nil
	}
	if u == nil {
		return nil, nil
	}
	p := u.Public()
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, publicProfileKey(name), p, publicProfileTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("public profile cache write failed")
		}
	}
	return &p, nil
}

func validateProfile(rec *entity.UserRecord) error {
	rec.ID = strings.TrimSpace(rec.ID)
	rec.Name = strings.TrimSpace(rec.Name)
	rec.ProviderID = strings.TrimSpace(rec.ProviderID)
	if rec.ID == "" || rec.Name == "" || rec.ProviderID == "" || !rec.Provider.Valid() {
		return ErrInvalidProfile
	}
	return nil
}

func normalizeLinks(links []entity.ProfileLink) []entity.ProfileLink {
	if links == nil {
		return nil
	}
	out := make([]entity.ProfileLink, 0, len(links))
	for _, l := range links {
		l.URL = strings.TrimSpace(l.URL)
		l.Title = strings.TrimSpace(l.Title)
		if l.URL == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
