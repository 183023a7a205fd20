package auth0

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeAuth0 struct {
	mu        sync.Mutex
	calls     []recorded
	failPaths map[string]int
}

func (f *fakeAuth0) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/oauth/token" {
		_ = r.ParseForm()
		id, _, ok := r.BasicAuth()
		if !ok {
			id = r.Form.Get("client_id")
		}
		if id != "cid" || !strings.HasSuffix(r.Form.Get("audience"), "/api/v2/") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"mgmt-token","token_type":"Bearer","expires_in":3600}`)
		return
	}

	switch r.Header.Get("Authorization") {
	case "Bearer mgmt-token", "Bearer insecure":
	default:
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	rec := recorded{Method: r.Method, Path: r.URL.EscapedPath()}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}
	f.calls = append(f.calls, rec)

	w.Header().Set("Content-Type", "application/json")
	if status, ok := f.failPaths[rec.Path]; ok {
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"statusCode":%d,"error":%q,"message":"nope"}`, status, http.StatusText(status))
		return
	}
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = io.WriteString(w, `{}`)
}

func (f *fakeAuth0) recorded() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.calls...)
}

func newTestClient(t *testing.T) (*Client, *fakeAuth0) {
	t.Helper()
	fake := &fakeAuth0{failPaths: map[string]int{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		Domain:       srv.Listener.Addr().String(),
		ClientID:     "cid",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
		Insecure:     true,
	})
	require.NoError(t, err)
	return c, fake
}

func TestUpdateName(t *testing.T) {
	c, fake := newTestClient(t)

	require.NoError(t, c.UpdateName(context.Background(), "auth0|abc", "Ayse"))
	calls := fake.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.Equal(t, "/api/v2/users/auth0%7Cabc", calls[0].Path)
	assert.Equal(t, map[string]any{"name": "Ayse"}, calls[0].Body)
}

func TestUpdateEmailSendsVerification(t *testing.T) {
	c, fake := newTestClient(t)

	require.NoError(t, c.UpdateEmail(context.Background(), "auth0|abc", "a@example.com"))
	calls := fake.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{"email": "a@example.com"}, calls[0].Body)
	assert.Equal(t, http.MethodPost, calls[1].Method)
	assert.Equal(t, "/api/v2/jobs/verification-email", calls[1].Path)
	assert.Equal(t, "auth0|abc", calls[1].Body["user_id"])
}

func TestUpdateEmailFailures(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		status  int
		wantErr error
		notErr  error
		calls   int
	}{
		{"update rejected", "/api/v2/users/auth0%7Cabc", http.StatusBadRequest, ErrUpdateEmail, ErrVerificationEmail, 1},
		{"verification rejected", "/api/v2/jobs/verification-email", http.StatusTooManyRequests, ErrVerificationEmail, ErrUpdateEmail, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newTestClient(t)
			fake.failPaths[tt.path] = tt.status

			err := c.UpdateEmail(context.Background(), "auth0|abc", "a@example.com")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, tt.notErr)
			assert.Equal(t, tt.status, statusOf(err))
			assert.Len(t, fake.recorded(), tt.calls)
		})
	}
}

func TestDeleteUser(t *testing.T) {
	c, fake := newTestClient(t)

	require.NoError(t, c.DeleteUser(context.Background(), "auth0|abc"))
	calls := fake.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodDelete, calls[0].Method)
	assert.Equal(t, "/api/v2/users/auth0%7Cabc", calls[0].Path)

	fake.failPaths["/api/v2/users/auth0%7Cgone"] = http.StatusNotFound
	err := c.DeleteUser(context.Background(), "auth0|gone")
	assert.ErrorIs(t, err, ErrDeleteUser)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}
