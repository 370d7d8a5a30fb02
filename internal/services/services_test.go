package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/portal-be/internal/database"
	"github.com/isdelr/portal-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUserService(t *testing.T, db *sql.DB) *UserService {
	s := NewUserService(db)
	s.cost = bcrypt.MinCost
	return s
}

type recordingPublisher struct {
	mu         sync.Mutex
	activities []models.Activity
}

func (p *recordingPublisher) PublishActivity(a models.Activity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, a)
}

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t, newTestDB(t))

	user, err := svc.CreateUser(ctx, " ana ", "Ana@Example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	got, err := svc.AuthenticateUser(ctx, "ANA@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	_, err = svc.AuthenticateUser(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.AuthenticateUser(ctx, "nobody@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := newTestUserService(t, newTestDB(t))

	_, err := svc.CreateUser(context.Background(), "", "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrInvalidUserInput)

	_, err = svc.CreateUser(context.Background(), "ana", "a@b.c", "")
	assert.ErrorIs(t, err, ErrInvalidUserInput)
}

func TestUserService_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t, newTestDB(t))

	_, err := svc.CreateUser(ctx, "ana", "ana@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "other", "ana@example.com", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = svc.CreateUser(ctx, "ana", "other@example.com", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestUserService_UpdateAndPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t, newTestDB(t))

	user, err := svc.CreateUser(ctx, "ana", "ana@example.com", "old")
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, user.ID, "ana2", "ana2@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana2", updated.Username)
	assert.Equal(t, "ana2@example.com", updated.Email)

	_, err = svc.UpdateUser(ctx, "missing", "x", "x@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = svc.UpdatePassword(ctx, user.ID, "wrong", "new")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.UpdatePassword(ctx, user.ID, "old", "new"))
	_, err = svc.AuthenticateUser(ctx, "ana2@example.com", "new")
	assert.NoError(t, err)
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	activity := NewActivityService(db, nil)

	user, err := svc.CreateUser(ctx, "ana", "ana@example.com", "pw")
	require.NoError(t, err)
	_, err = activity.RecordActivity(ctx, user.ID, models.ActivityLogin, "login", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	_, err = svc.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, user.ID), ErrUserNotFound)

	list, err := activity.GetRecentActivity(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestActivityService_RecordAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := newTestUserService(t, db)
	pub := &recordingPublisher{}
	svc := NewActivityService(db, pub)

	ana, err := users.CreateUser(ctx, "ana", "ana@example.com", "pw")
	require.NoError(t, err)
	bob, err := users.CreateUser(ctx, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.RecordActivity(ctx, ana.ID, models.ActivityLogin, "login", "10.0.0.1")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	last, err := svc.RecordActivity(ctx, ana.ID, models.ActivityUpdate, "update", "")
	require.NoError(t, err)
	_, err = svc.RecordActivity(ctx, bob.ID, models.ActivityLogin, "login", "")
	require.NoError(t, err)

	list, err := svc.GetRecentActivity(ctx, ana.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, last.ID, list[0].ID)
	assert.Equal(t, "10.0.0.1", list[1].IPAddress)

	list, err = svc.GetRecentActivity(ctx, ana.ID, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.Len(t, pub.activities, 5)
}

func TestTokenService_RevokeAndPrune(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService(newTestDB(t))
	now := time.Now()

	revoked, err := svc.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.RevokeToken(ctx, "a", now.Add(-time.Minute)))
	require.NoError(t, svc.RevokeToken(ctx, "b", now.Add(time.Hour)))
	require.NoError(t, svc.RevokeToken(ctx, "b", now.Add(time.Hour)))

	revoked, err = svc.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.True(t, revoked)

	n, err := svc.PruneExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	revoked, err = svc.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = svc.IsRevoked(ctx, "b")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestSystemService_GetHostStatus(t *testing.T) {
	status, err := NewSystemService().GetHostStatus(context.Background())
	require.NoError(t, err)
	assert.Positive(t, status.Goroutines)
	assert.GreaterOrEqual(t, status.MemoryPercent, 0.0)
}
