package services

import (
	"fmt"
	"sync"
)

// MockAuth0Service is a mock implementation of Auth0Interface for testing
type MockAuth0Service struct {
	userInfoByToken map[string]*Auth0UserInfo
	claimsByUID     map[string]map[string]string
	deactivated     map[string]bool
	createdUsers    []string
	revokedSessions []string
	nextUserID      int
	claimsErr       error
	mu              sync.RWMutex
}

// NewMockAuth0Service creates a new mock Auth0 service
func NewMockAuth0Service() *MockAuth0Service {
	return &MockAuth0Service{
		userInfoByToken: make(map[string]*Auth0UserInfo),
		claimsByUID:     make(map[string]map[string]string),
		deactivated:     make(map[string]bool),
	}
}

// SetAsMockForTesting sets this mock as the global Auth0 service instance for testing
func (m *MockAuth0Service) SetAsMockForTesting() {
	SetAuth0Service(m)
}

// RegisterUserInfo maps an access token to the user info returned for it
func (m *MockAuth0Service) RegisterUserInfo(accessToken string, info *Auth0UserInfo) {
	m.mu.Lock()
	m.userInfoByToken[accessToken] = info
	m.mu.Unlock()
}

// GetUserInfo simulates Auth0's /userinfo endpoint
func (m *MockAuth0Service) GetUserInfo(accessToken string) (*Auth0UserInfo, error) {
	m.mu.RLock()
	info, exists := m.userInfoByToken[accessToken]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown access token")
	}
	return info, nil
}

// FailSetCustomClaims makes subsequent claim writes return err
func (m *MockAuth0Service) FailSetCustomClaims(err error) {
	m.mu.Lock()
	m.claimsErr = err
	m.mu.Unlock()
}

// SetCustomClaims records the claims written for a user
func (m *MockAuth0Service) SetCustomClaims(uid, role, storeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.claimsErr != nil {
		return m.claimsErr
	}
	m.claimsByUID[uid] = map[string]string{"role": role, "store_id": storeID}
	return nil
}

// SetDeactivated records the deactivated flag for a user
func (m *MockAuth0Service) SetDeactivated(uid string, deactivated bool) error {
	m.mu.Lock()
	m.deactivated[uid] = deactivated
	m.mu.Unlock()
	return nil
}

// CreateUser simulates provisioning a user and returns a synthetic uid
func (m *MockAuth0Service) CreateUser(email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextUserID++
	uid := fmt.Sprintf("auth0|mock%d", m.nextUserID)
	m.createdUsers = append(m.createdUsers, email)
	return uid, nil
}

// RevokeSessions records the revocation for testing assertions
func (m *MockAuth0Service) RevokeSessions(uid string) error {
	m.mu.Lock()
	m.revokedSessions = append(m.revokedSessions, uid)
	m.mu.Unlock()
	return nil
}

// ClaimsFor returns the claims recorded for a uid (for testing assertions)
func (m *MockAuth0Service) ClaimsFor(uid string) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	claims := make(map[string]string, len(m.claimsByUID[uid]))
	for k, v := range m.claimsByUID[uid] {
		claims[k] = v
	}
	return claims
}

// IsDeactivated reports the recorded deactivated flag for a uid
func (m *MockAuth0Service) IsDeactivated(uid string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deactivated[uid]
}

// RevokedSessions returns the uids whose sessions were revoked
func (m *MockAuth0Service) RevokedSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.revokedSessions...)
}
