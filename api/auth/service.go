package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"BizBooks/internal/logger"
	"BizBooks/internal/serviceiface"
)

// UserSession is one logged-in client. Every gated request must carry its
// SessionID.
type UserSession struct {
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	LastSeen   string `json:"last_seen"`
	ClientIP   string `json:"client_ip"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// AuthService checks credentials and tracks sessions. With a database
// configured, credentials come from the users table; without one, a shared
// admin credential pair from the environment keeps the access gate up for
// workbook-only deployments. The old client-side hardcoded check is gone.
type AuthService struct {
	db             *sql.DB
	adminUser      string
	adminPassword  string
	maxUsers       int
	sessionTimeout time.Duration
	users          map[string]*UserSession
	mu             sync.Mutex
	stopCh         chan struct{}
}

func NewAuthService(db *sql.DB, maxUsers, sessionTimeoutMinutes int) serviceiface.Service {
	if maxUsers <= 0 {
		maxUsers = 50
	}
	if sessionTimeoutMinutes <= 0 {
		sessionTimeoutMinutes = 120
	}
	adminUser := os.Getenv("ADMIN_USER")
	if adminUser == "" {
		adminUser = "admin"
	}
	return &AuthService{
		db:             db,
		adminUser:      adminUser,
		adminPassword:  os.Getenv("ADMIN_PASSWORD"),
		maxUsers:       maxUsers,
		sessionTimeout: time.Duration(sessionTimeoutMinutes) * time.Minute,
		users:          make(map[string]*UserSession),
		stopCh:         make(chan struct{}),
	}
}

func (a *AuthService) Name() string { return "auth" }

func (a *AuthService) Start() error {
	go a.sessionCleaner()
	return nil
}

func (a *AuthService) Stop() error {
	close(a.stopCh)
	return nil
}

func (a *AuthService) Login(username, password, clientIP string) (*UserSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, session := range a.users {
		if session.Email == username && session.IsLoggedIn {
			session.LastSeen = time.Now().Format(time.RFC3339)
			session.ClientIP = clientIP
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("User %s re-logged in, returning existing session", username))
			}
			return session, nil
		}
	}

	if len(a.users) >= a.maxUsers {
		return nil, errors.New("maximum concurrent users reached")
	}

	userID, name, role, err := a.checkCredentials(username, password)
	if err != nil {
		return nil, err
	}

	session := &UserSession{
		SessionID:  uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Email:      username,
		Role:       role,
		LastSeen:   time.Now().Format(time.RFC3339),
		ClientIP:   clientIP,
		IsLoggedIn: true,
	}
	a.users[session.SessionID] = session

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("User logged in: " + username)
	}
	return session, nil
}

func (a *AuthService) checkCredentials(username, password string) (userID, name, role string, err error) {
	if a.db != nil {
		query := `
		SELECT u.id, u.employee_name, COALESCE(r.name, 'user')
		FROM users u
		LEFT JOIN user_roles ur ON u.id = ur.user_id
		LEFT JOIN roles r ON ur.role_id = r.id
		WHERE u.email = $1 AND u.password = crypt($2, u.password)
		`
		if scanErr := a.db.QueryRow(query, username, password).Scan(&userID, &name, &role); scanErr != nil {
			return "", "", "", errors.New("invalid credentials or user not found")
		}
		return userID, name, role, nil
	}
	if a.adminPassword == "" {
		return "", "", "", errors.New("login disabled: ADMIN_PASSWORD is not configured")
	}
	if username != a.adminUser || password != a.adminPassword {
		return "", "", "", errors.New("invalid credentials or user not found")
	}
	return "admin", "Administrator", "admin", nil
}

func (a *AuthService) Logout(sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, exists := a.users[sessionID]
	if !exists {
		return errors.New("session not found")
	}
	delete(a.users, sessionID)

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("User logged out: " + session.Email)
	}
	return nil
}

// Validate returns the session for sessionID, refreshing its last-seen
// time, or an error when the session is unknown.
func (a *AuthService) Validate(sessionID string) (*UserSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	session, exists := a.users[sessionID]
	if !exists {
		return nil, errors.New("session not found or expired")
	}
	session.LastSeen = time.Now().Format(time.RFC3339)
	return session, nil
}

func (a *AuthService) GetActiveSessions() []*UserSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	sessions := make([]*UserSession, 0, len(a.users))
	for _, s := range a.users {
		sessions = append(sessions, s)
	}
	return sessions
}

func (a *AuthService) sessionCleaner() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.evictIdleSessions()
		}
	}
}

func (a *AuthService) evictIdleSessions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := time.Now().Add(-a.sessionTimeout)
	for id, session := range a.users {
		lastSeen, err := time.Parse(time.RFC3339, session.LastSeen)
		if err != nil || lastSeen.Before(cutoff) {
			delete(a.users, id)
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit("Session expired for " + session.Email)
			}
		}
	}
}

var globalAuthService *AuthService

// SetGlobalAuthService sets the global AuthService instance
func SetGlobalAuthService(svc *AuthService) {
	globalAuthService = svc
}

// GetActiveSessions returns active sessions from the global AuthService
func GetActiveSessions() []*UserSession {
	if globalAuthService == nil {
		return nil
	}
	return globalAuthService.GetActiveSessions()
}
