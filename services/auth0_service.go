package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/storeline/training-tracker-api/config"
)

// Auth0UserInfo represents the user information returned from Auth0's /userinfo endpoint
type Auth0UserInfo struct {
	Sub   string `json:"sub"` // Auth0 user ID
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Auth0Interface defines the identity provider operations the API depends on
type Auth0Interface interface {
	// GetUserInfo fetches identity details for the bearer of accessToken
	GetUserInfo(accessToken string) (*Auth0UserInfo, error)

	// SetCustomClaims writes role/store_id app metadata onto a user so the
	// next issued token carries them as custom claims
	SetCustomClaims(uid, role, storeID string) error

	// SetDeactivated flips the deactivated claim on a user
	SetDeactivated(uid string, deactivated bool) error

	// CreateUser provisions an identity for an email and returns its uid
	CreateUser(email string) (string, error)

	// RevokeSessions invalidates all of a user's active sessions
	RevokeSessions(uid string) error
}

// Auth0Service handles interactions with the Auth0 API, including the
// Management API used by the admin endpoints
type Auth0Service struct {
	domain       string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu           sync.Mutex
	mgmtToken    string
	mgmtTokenExp time.Time
}

var auth0ServiceInstance Auth0Interface

// NewAuth0Service creates a new Auth0 service instance
func NewAuth0Service(cfg *config.Config) *Auth0Service {
	return &Auth0Service{
		domain:       cfg.Auth0Domain,
		clientID:     cfg.Auth0ClientID,
		clientSecret: cfg.Auth0ClientSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// InitAuth0Service initializes the global Auth0 service instance
func InitAuth0Service(cfg *config.Config) Auth0Interface {
	auth0ServiceInstance = NewAuth0Service(cfg)
	return auth0ServiceInstance
}

// GetAuth0Service returns the initialized Auth0 service instance
func GetAuth0Service() Auth0Interface {
	return auth0ServiceInstance
}

// SetAuth0Service sets the Auth0 service instance (primarily for testing)
func SetAuth0Service(service Auth0Interface) {
	auth0ServiceInstance = service
}

// baseURL returns the domain with a protocol. Test servers pass a full URL
// as the domain; production config passes a bare hostname.
func (s *Auth0Service) baseURL() string {
	if strings.HasPrefix(s.domain, "http://") || strings.HasPrefix(s.domain, "https://") {
		return s.domain
	}
	return "https://" + s.domain
}

// GetUserInfo fetches user information from Auth0's /userinfo endpoint
// accessToken is the JWT access token from the Authorization header
func (s *Auth0Service) GetUserInfo(accessToken string) (*Auth0UserInfo, error) {
	url := fmt.Sprintf("%s/userinfo", s.baseURL())

	// Create the HTTP request
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Add the access token to the Authorization header
	req.Header.Add("Authorization", "Bearer "+accessToken)

	// Execute the request
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo endpoint: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			// Log the error but don't override the return value
			_ = closeErr
		}
	}()

	// Check for non-200 status codes
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	// Parse the response
	var userInfo Auth0UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return &userInfo, nil
}

// SetCustomClaims writes role and store id into the user's app metadata.
// A post-login action copies app metadata into token claims, so the change
// is visible on the next token refresh.
func (s *Auth0Service) SetCustomClaims(uid, role, storeID string) error {
	payload := map[string]interface{}{
		"app_metadata": map[string]interface{}{
			"role":     role,
			"store_id": storeID,
		},
	}
	return s.managementRequest("PATCH", "/api/v2/users/"+uid, payload, nil)
}

// SetDeactivated flips the deactivated flag in the user's app metadata and
// blocks the user so new tokens cannot be issued
func (s *Auth0Service) SetDeactivated(uid string, deactivated bool) error {
	payload := map[string]interface{}{
		"blocked": deactivated,
		"app_metadata": map[string]interface{}{
			"deactivated": deactivated,
		},
	}
	return s.managementRequest("PATCH", "/api/v2/users/"+uid, payload, nil)
}

// CreateUser provisions a new Auth0 database user for an email address.
// The user completes setup through a password-reset flow; this call only
// establishes the identity and returns its uid.
func (s *Auth0Service) CreateUser(email string) (string, error) {
	payload := map[string]interface{}{
		"email":          email,
		"connection":     "Username-Password-Authentication",
		"email_verified": false,
	}

	var created struct {
		UserID string `json:"user_id"`
	}
	if err := s.managementRequest("POST", "/api/v2/users", payload, &created); err != nil {
		return "", err
	}
	if created.UserID == "" {
		return "", fmt.Errorf("auth0 user creation returned no user id")
	}
	return created.UserID, nil
}

// RevokeSessions invalidates every active session for the user
func (s *Auth0Service) RevokeSessions(uid string) error {
	return s.managementRequest("DELETE", "/api/v2/users/"+uid+"/sessions", nil, nil)
}

// managementRequest performs an authenticated Management API call
func (s *Auth0Service) managementRequest(method, path string, payload, out interface{}) error {
	token, err := s.managementToken()
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal management payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.baseURL()+path, body)
	if err != nil {
		return fmt.Errorf("failed to create management request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call management API: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("management API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode management response: %w", err)
		}
	}
	return nil
}

// managementToken returns a cached client-credentials token for the
// Management API, fetching a fresh one when the cache is empty or expiring
func (s *Auth0Service) managementToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mgmtToken != "" && time.Now().Before(s.mgmtTokenExp.Add(-time.Minute)) {
		return s.mgmtToken, nil
	}

	payload := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     s.clientID,
		"client_secret": s.clientSecret,
		"audience":      s.baseURL() + "/api/v2/",
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	resp, err := s.httpClient.Post(s.baseURL()+"/oauth/token", "application/json", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to fetch management token: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	s.mgmtToken = tokenResp.AccessToken
	s.mgmtTokenExp = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return s.mgmtToken, nil
}
