package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/postgrest-go"

	"github.com/illegalcall/glow-up/internal/models"
)

// ErrInvalidCredentials is returned when the auth service rejects a login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Client bundles the Supabase auth and PostgREST clients for one project.
type Client struct {
	auth   gotrue.Client
	logger *slog.Logger

	// postgrest.Client reports errors through a shared field
	restMu sync.Mutex
	rest   *postgrest.Client
}

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	parts := strings.Split(url, ".")
	return parts[0]
}

func New(supabaseURL, supabaseKey string, logger *slog.Logger) *Client {
	projectRef := extractProjectRef(supabaseURL)
	logger.Info("Initializing Supabase client", "project", projectRef, "key", truncateKey(supabaseKey))

	rest := postgrest.NewClient(strings.TrimRight(supabaseURL, "/")+"/rest/v1", "public", map[string]string{
		"apikey":        supabaseKey,
		"Authorization": "Bearer " + supabaseKey,
	})

	return &Client{
		auth:   gotrue.New(projectRef, supabaseKey),
		rest:   rest,
		logger: logger,
	}
}

// Truncate key for logging to avoid exposing the full key
func truncateKey(key string) string {
	if len(key) > 10 {
		return key[:10] + "..."
	}
	return ""
}

// Ping checks that the auth service answers with the configured key.
func (c *Client) Ping() error {
	if _, err := c.auth.GetSettings(); err != nil {
		return fmt.Errorf("failed to connect to Supabase: %w", err)
	}
	return nil
}

// ValidateCredentials checks if the provided credentials are valid
func (c *Client) ValidateCredentials(email, password string) (bool, error) {
	res, err := c.auth.SignInWithEmailPassword(email, password)
	if err != nil {
		c.logger.Warn("Authentication error", "email", email, "error", err)
		return false, fmt.Errorf("authentication failed: %w", err)
	}

	isValid := res != nil && res.AccessToken != ""
	c.logger.Debug("Authentication result", "email", email, "valid", isValid)
	return isValid, nil
}

// SignUp registers an auth user. The profile row is created separately.
func (c *Client) SignUp(email, password string) error {
	_, err := c.auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	return nil
}

// IncrementStat calls the increment_profile_stat stored procedure and
// returns the counter value after the increment.
func (c *Client) IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.restMu.Lock()
	defer c.restMu.Unlock()

	body := c.rest.Rpc("increment_profile_stat", "", map[string]interface{}{
		"profile_id": profileID,
		"stat_name":  string(stat),
		"amount":     delta,
	})
	if c.rest.ClientError != nil {
		err := c.rest.ClientError
		c.rest.ClientError = nil
		return 0, fmt.Errorf("rpc increment_profile_stat: %w", err)
	}

	value, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0, fmt.Errorf("rpc increment_profile_stat: unexpected body %q: %w", body, err)
	}
	return value, nil
}
