// Package auth0 talks to the Auth0 Management API on behalf of signed-in users.
package auth0

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/auth0/go-auth0"
	"github.com/auth0/go-auth0/management"
	"golang.org/x/oauth2"
)

var (
	ErrUpdateName        = errors.New("failed to update auth0 user name")
	ErrUpdateEmail       = errors.New("failed to update auth0 user email")
	ErrVerificationEmail = errors.New("failed to send verification email")
	ErrDeleteUser        = errors.New("failed to delete auth0 user")
)

type Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration

	// Insecure talks plain HTTP to Domain, for tests against a local server.
	Insecure bool
}

// Client wraps the management SDK. The machine-to-machine token is fetched
// and refreshed by the SDK's client-credentials source.
type Client struct {
	m *management.Management
}

// New builds a management client. ctx scopes token fetches and should outlive
// individual requests.
func New(ctx context.Context, c Config) (*Client, error) {
	hc := &http.Client{Timeout: c.Timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)

	var opts []management.Option
	if c.Insecure {
		opts = append(opts, management.WithInsecure())
	}
	opts = append(opts,
		management.WithClientCredentials(ctx, c.ClientID, c.ClientSecret),
		management.WithClient(hc),
		management.WithNoRetries(),
	)

	m, err := management.New(c.Domain, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth0 management client: %w", err)
	}
	return &Client{m: m}, nil
}

// UpdateName sets the display name on the identity.
func (c *Client) UpdateName(ctx context.Context, userID, name string) error {
	if err := c.m.User.Update(ctx, userID, &management.User{Name: auth0.String(name)}); err != nil {
		slog.Error("auth0 name update failed", "auth0_id", userID, "status", statusOf(err), "error", err)
		return fmt.Errorf("%w: %w", ErrUpdateName, err)
	}
	return nil
}

// UpdateEmail changes the address and then asks Auth0 to send a verification mail.
func (c *Client) UpdateEmail(ctx context.Context, userID, email string) error {
	if err := c.m.User.Update(ctx, userID, &management.User{Email: auth0.String(email)}); err != nil {
		slog.Error("auth0 email update failed", "auth0_id", userID, "status", statusOf(err), "error", err)
		return fmt.Errorf("%w: %w", ErrUpdateEmail, err)
	}

	if err := c.m.Job.VerifyEmail(ctx, &management.Job{UserID: auth0.String(userID)}); err != nil {
		slog.Error("auth0 verification email failed", "auth0_id", userID, "status", statusOf(err), "error", err)
		return fmt.Errorf("%w: %w", ErrVerificationEmail, err)
	}
	return nil
}

// DeleteUser removes the identity for good.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if err := c.m.User.Delete(ctx, userID); err != nil {
		slog.Error("auth0 user delete failed", "auth0_id", userID, "status", statusOf(err), "error", err)
		return fmt.Errorf("%w: %w", ErrDeleteUser, err)
	}
	return nil
}

// statusOf is the API status code, or 0 for transport failures.
func statusOf(err error) int {
	var apiErr management.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status()
	}
	return 0
}
