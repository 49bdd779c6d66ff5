package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnvAuthService(t *testing.T) *AuthService {
	t.Helper()
	t.Setenv("ADMIN_USER", "owner")
	t.Setenv("ADMIN_PASSWORD", "secret")
	return NewAuthService(nil, 2, 120).(*AuthService)
}

func TestLoginWithEnvCredentials(t *testing.T) {
	svc := newEnvAuthService(t)

	session, err := svc.Login("owner", "secret", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, "admin", session.Role)
	assert.True(t, session.IsLoggedIn)

	_, err = svc.Login("owner", "wrong", "10.0.0.1")
	assert.Error(t, err)
	_, err = svc.Login("stranger", "secret", "10.0.0.1")
	assert.Error(t, err)
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	t.Setenv("ADMIN_USER", "owner")
	t.Setenv("ADMIN_PASSWORD", "")
	svc := NewAuthService(nil, 2, 120).(*AuthService)

	_, err := svc.Login("owner", "", "10.0.0.1")
	assert.Error(t, err)
}

func TestReloginReturnsExistingSession(t *testing.T) {
	svc := newEnvAuthService(t)

	first, err := svc.Login("owner", "secret", "10.0.0.1")
	require.NoError(t, err)
	second, err := svc.Login("owner", "secret", "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, "10.0.0.2", second.ClientIP)
	assert.Len(t, svc.GetActiveSessions(), 1)
}

func TestValidateAndLogout(t *testing.T) {
	svc := newEnvAuthService(t)
	session, err := svc.Login("owner", "secret", "10.0.0.1")
	require.NoError(t, err)

	got, err := svc.Validate(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, got.SessionID)

	require.NoError(t, svc.Logout(session.SessionID))
	_, err = svc.Validate(session.SessionID)
	assert.Error(t, err)
	assert.Error(t, svc.Logout(session.SessionID))
}

func TestEvictIdleSessions(t *testing.T) {
	svc := newEnvAuthService(t)
	session, err := svc.Login("owner", "secret", "10.0.0.1")
	require.NoError(t, err)

	svc.mu.Lock()
	svc.users[session.SessionID].LastSeen = time.Now().Add(-3 * time.Hour).Format(time.RFC3339)
	svc.mu.Unlock()

	svc.evictIdleSessions()
	_, err = svc.Validate(session.SessionID)
	assert.Error(t, err)
}
