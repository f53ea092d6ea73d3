package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-social/internal/config"
	"github.com/weiawesome/wes-io-social/internal/domain"
	"github.com/weiawesome/wes-io-social/internal/idgen"
	"github.com/weiawesome/wes-io-social/internal/repository"
	"github.com/weiawesome/wes-io-social/internal/testutil"
	"github.com/weiawesome/wes-io-social/pkg/jwt"
)

func TestSweepClearsOnlyExpiredTokens(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewGormUserRepository(db, idgen.MustNew(idgen.UUID))
	ctx := context.Background()

	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	expired := &domain.User{Name: "a", Email: "a@x.io", PasswordHash: "h", ResetPasswordToken: "old", ResetPasswordExpire: &past}
	live := &domain.User{Name: "b", Email: "b@x.io", PasswordHash: "h", ResetPasswordToken: "new", ResetPasswordExpire: &future}
	require.NoError(t, users.Create(ctx, expired))
	require.NoError(t, users.Create(ctx, live))

	s := New(users, config.SweeperConfig{Interval: time.Hour})
	s.now = func() time.Time { return now }
	assert.Equal(t, int64(1), s.Sweep(ctx))

	got, err := users.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ResetPasswordToken)
	assert.Nil(t, got.ResetPasswordExpire)

	got, err = users.GetByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.ResetPasswordToken)

	assert.Equal(t, int64(0), s.Sweep(ctx))
}

func TestSweeperStops(t *testing.T) {
	s := New(nil, config.SweeperConfig{Interval: time.Hour})
	s.Start(context.Background())
	s.Stop()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweepRunsCleaners(t *testing.T) {
	db := testutil.NewDB(t)
	users := repository.NewGormUserRepository(db, idgen.MustNew(idgen.UUID))
	ctx := context.Background()

	revocations := jwt.NewMemoryRevocations()
	require.NoError(t, revocations.Revoke(ctx, "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, revocations.Revoke(ctx, "live", time.Now().Add(time.Hour)))

	s := New(users, config.SweeperConfig{Interval: time.Hour}, revocations)
	s.Sweep(ctx)

	assert.Equal(t, 1, revocations.Len())
	revoked, err := revocations.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}
