package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilpos/vigilpos/internal/audit"
)

type mockRepo struct {
	sessions map[string]*UserSession
}

func newMockRepo() *mockRepo {
	return &mockRepo{sessions: make(map[string]*UserSession)}
}

func (m *mockRepo) Insert(ctx context.Context, s UserSession) error {
	cp := s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (UserSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return UserSession{}, ErrSessionNotFound
	}
	return *s, nil
}

func (m *mockRepo) ListActiveByUser(ctx context.Context, businessID, userID string) ([]UserSession, error) {
	var out []UserSession
	for _, s := range m.sessions {
		if s.BusinessID == businessID && s.UserID == userID && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockRepo) ListActiveByBusiness(ctx context.Context, businessID string) ([]UserSession, error) {
	var out []UserSession
	for _, s := range m.sessions {
		if s.BusinessID == businessID && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockRepo) ListHistory(ctx context.Context, businessID, userID string, limit int) ([]UserSession, error) {
	var out []UserSession
	for _, s := range m.sessions {
		if s.BusinessID == businessID && s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockRepo) Touch(ctx context.Context, id string, at time.Time) error {
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.LastActiveAt = at
	return nil
}

func (m *mockRepo) Terminate(ctx context.Context, id string, forced bool) error {
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.IsActive = false
	s.ForceLogout = s.ForceLogout || forced
	return nil
}

func (m *mockRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, s := range m.sessions {
		if s.IsActive && s.ExpiresAt.Before(now) {
			s.IsActive = false
			n++
		}
	}
	return n, nil
}

type mockNotifier struct {
	notified []string
}

func (m *mockNotifier) NotifyForceLogout(ctx context.Context, sessionID string) error {
	m.notified = append(m.notified, sessionID)
	return nil
}

type recordingSink struct {
	entries []audit.Entry
}

func (r *recordingSink) Record(ctx context.Context, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func at(hour int) time.Time {
	return time.Date(2025, time.May, 1, hour, 0, 0, 0, time.UTC)
}

func newTestService(repo *mockRepo, singleDevice bool) (*Service, *mockNotifier, *recordingSink) {
	notifier := &mockNotifier{}
	sink := &recordingSink{}
	svc := NewService(repo, notifier, sink, nil, 24*time.Hour, singleDevice)
	svc.WithNow(func() time.Time { return at(10) })
	return svc, notifier, sink
}

func TestShouldLogout(t *testing.T) {
	base := UserSession{IsActive: true, ExpiresAt: at(12)}

	assert.False(t, base.ShouldLogout(at(10)))

	forced := base
	forced.ForceLogout = true
	assert.True(t, forced.ShouldLogout(at(10)), "force logout wins regardless of expiry")

	expired := base
	assert.True(t, expired.ShouldLogout(at(13)))

	inactive := base
	inactive.IsActive = false
	assert.True(t, inactive.ShouldLogout(at(10)))
}

func TestCreateSession(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo, false)

	session, err := svc.CreateSession(context.Background(), CreateSessionInput{
		UserID: "u1", BusinessID: "biz1", DeviceID: "d1", DeviceName: "Counter 1", Platform: "android",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.True(t, session.IsActive)
	assert.Equal(t, at(10).Add(24*time.Hour), session.ExpiresAt)
}

func TestSingleDeviceTerminatesSiblings(t *testing.T) {
	repo := newMockRepo()
	svc, notifier, _ := newTestService(repo, true)

	first, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "u1", BusinessID: "biz1", DeviceID: "d1"})
	require.NoError(t, err)
	second, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "u1", BusinessID: "biz1", DeviceID: "d2"})
	require.NoError(t, err)

	old := repo.sessions[first.ID]
	assert.False(t, old.IsActive)
	assert.True(t, old.ForceLogout)
	assert.True(t, repo.sessions[second.ID].IsActive)
	assert.Equal(t, []string{first.ID}, notifier.notified)
}

func TestValidateSessionRefreshesHeartbeat(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo, false)
	session, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "u1", BusinessID: "biz1"})
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return at(11) })
	ok, err := svc.ValidateSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, at(11), repo.sessions[session.ID].LastActiveAt)
}

func TestValidateSessionEndsExpiredSession(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo, false)
	session, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "u1", BusinessID: "biz1"})
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return at(10).Add(25 * time.Hour) })
	ok, err := svc.ValidateSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, repo.sessions[session.ID].IsActive, "expired session is ended, not left dangling")
}

func TestValidateSessionUnknownID(t *testing.T) {
	svc, _, _ := newTestService(newMockRepo(), false)
	ok, err := svc.ValidateSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForceLogoutAuditsAndNotifies(t *testing.T) {
	repo := newMockRepo()
	svc, notifier, sink := newTestService(repo, false)
	session, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "u1", BusinessID: "biz1", DeviceName: "Tablet"})
	require.NoError(t, err)

	require.NoError(t, svc.ForceLogout(context.Background(), session.ID, "owner"))

	got := repo.sessions[session.ID]
	assert.False(t, got.IsActive)
	assert.True(t, got.ForceLogout)
	assert.Equal(t, []string{session.ID}, notifier.notified)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, audit.ActionForceLogout, sink.entries[0].Action)
	payload, ok := sink.entries[0].NewValue.(audit.SessionTerminated)
	require.True(t, ok)
	assert.Equal(t, "Tablet", payload.DeviceName)
}

func TestSweepExpired(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo, false)
	_, err := svc.CreateSession(context.Background(), CreateSessionInput{UserID: "u1", BusinessID: "biz1"})
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return at(10).Add(48 * time.Hour) })
	n, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRedisNotifierDeliversForceLogout(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	notifier := NewRedisNotifier(client)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, stop, err := notifier.Watch(ctx, "s1")
	require.NoError(t, err)
	defer func() { _ = stop() }()

	require.NoError(t, notifier.NotifyForceLogout(ctx, "s1"))

	select {
	case payload := <-events:
		assert.Equal(t, "force_logout", payload)
	case <-ctx.Done():
		t.Fatal("no force logout event delivered")
	}
}
