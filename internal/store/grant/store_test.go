package grant

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"oidcprovider/internal/oidc/models"
	"oidcprovider/pkg/platform/sentinel"
)

type store interface {
	Save(ctx context.Context, g *models.Grant) (string, error)
	Find(ctx context.Context, id string, now time.Time) (*models.Grant, error)
	FindLatest(ctx context.Context, accountID, clientID string, now time.Time) (*models.Grant, error)
	Delete(ctx context.Context, id string) error
}

type GrantStoreSuite struct {
	suite.Suite
	newStore func() store
	store    store
	ctx      context.Context
	now      time.Time
}

func TestInMemoryGrantStore(t *testing.T) {
	suite.Run(t, &GrantStoreSuite{newStore: func() store { return NewInMemory() }})
}

func TestRedisGrantStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	suite.Run(t, &GrantStoreSuite{newStore: func() store {
		mr.FlushAll()
		return NewRedis(client)
	}})
}

func (s *GrantStoreSuite) SetupTest() {
	s.store = s.newStore()
	s.ctx = context.Background()
	s.now = time.Now()
}

func (s *GrantStoreSuite) grant(id, account string) *models.Grant {
	return &models.Grant{
		ID:           id,
		AccountID:    account,
		ClientID:     "foo",
		Scope:        []string{"openid", "email"},
		AuthTime:     s.now,
		AuthorizedAt: s.now,
		ExpiresAt:    s.now.Add(time.Hour),
	}
}

func (s *GrantStoreSuite) TestSaveAndFind() {
	s.Run("saved grant is found by id", func() {
		id, err := s.store.Save(s.ctx, s.grant("g1", "acct"))
		s.Require().NoError(err)
		s.Equal("g1", id)

		got, err := s.store.Find(s.ctx, "g1", s.now)
		s.Require().NoError(err)
		s.Equal([]string{"openid", "email"}, got.Scope)
	})

	s.Run("saving the same id twice conflicts", func() {
		_, err := s.store.Save(s.ctx, s.grant("g2", "acct"))
		s.Require().NoError(err)
		_, err = s.store.Save(s.ctx, s.grant("g2", "acct"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown grant is not found", func() {
		_, err := s.store.Find(s.ctx, "nope", s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("expired grant reports expired", func() {
		_, err := s.store.Save(s.ctx, s.grant("g3", "acct"))
		s.Require().NoError(err)
		_, err = s.store.Find(s.ctx, "g3", s.now.Add(2*time.Hour))
		s.ErrorIs(err, sentinel.ErrExpired)
	})
}

func (s *GrantStoreSuite) TestFindLatest() {
	_, err := s.store.Save(s.ctx, s.grant("old", "alice"))
	s.Require().NoError(err)
	_, err = s.store.Save(s.ctx, s.grant("new", "alice"))
	s.Require().NoError(err)

	got, err := s.store.FindLatest(s.ctx, "alice", "foo", s.now)
	s.Require().NoError(err)
	s.Equal("new", got.ID)

	_, err = s.store.FindLatest(s.ctx, "bob", "foo", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Delete(s.ctx, "new"))
	_, err = s.store.FindLatest(s.ctx, "alice", "foo", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.Require().NoError(s.store.Delete(s.ctx, "new"))
}
