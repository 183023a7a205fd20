package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/repository"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// googleSubPrefix marks identities federated from Google; their display name
// is owned by Google and never pushed back to Auth0.
const googleSubPrefix = "google-oauth2|"

// IdentityProvider is the part of the Auth0 management API the user flows need.
type IdentityProvider interface {
	UpdateName(ctx context.Context, userID, name string) error
	UpdateEmail(ctx context.Context, userID, email string) error
	DeleteUser(ctx context.Context, userID string) error
}

type UserService struct {
	users repository.Repository[models.User]
	idp   IdentityProvider
	locks *UserLocks
	now   func() time.Time
}

func NewUserService(users repository.Repository[models.User], idp IdentityProvider, locks *UserLocks) *UserService {
	return &UserService{
		users: users,
		idp:   idp,
		locks: locks,
		now:   time.Now,
	}
}

// Create stores a new user for auth0ID under a fresh short key.
func (s *UserService) Create(ctx context.Context, auth0ID string, input *models.UserInput) (*models.User, error) {
	if input == nil {
		return nil, ErrUserInputRequired
	}
	if auth0ID == "" {
		return nil, ErrUserCreate
	}

	existing, err := s.users.Filter(ctx, repository.Where{"auth0_id": auth0ID})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserCreate, err)
	}
	if len(existing) > 0 {
		return nil, ErrAuth0IDTaken
	}

	now := s.now()
	user := &models.User{
		Auth0ID:   auth0ID,
		Name:      sanitizeText(input.Name),
		Profile:   sanitizeText(input.Profile),
		IconKey:   strings.TrimSpace(input.IconKey),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Set(ctx, shortuuid.New(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAuth0IDTaken
		}
		return nil, fmt.Errorf("%w: %w", ErrUserCreate, err)
	}
	return user, nil
}

// GetByAuth0ID returns the oldest user linked to auth0ID.
func (s *UserService) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	users, err := s.users.Filter(ctx, repository.Where{"auth0_id": auth0ID})
	if err != nil {
		return nil, fmt.Errorf("failed to find user by auth0 id: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// GetByID looks a user up by key. Withdrawn users are returned as stored.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Update replaces the editable profile of the user linked to auth0ID. Empty
// input fields are stored empty.
func (s *UserService) Update(ctx context.Context, auth0ID string, input *models.UserInput) (*models.User, error) {
	if input == nil {
		return nil, ErrUserInputRequired
	}

	user, err := s.modify(ctx, auth0ID, func(u *models.User) {
		u.Name = sanitizeText(input.Name)
		u.Profile = sanitizeText(input.Profile)
		u.IconKey = strings.TrimSpace(input.IconKey)
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUserUpdate, err)
	}
	return user, nil
}

// Delete withdraws the user: personal fields are scrubbed and auth0_id is
// replaced so the login can sign up again.
func (s *UserService) Delete(ctx context.Context, auth0ID string) (*models.User, error) {
	user, err := s.modify(ctx, auth0ID, func(u *models.User) {
		u.Auth0ID = uuid.NewString()
		u.Name = models.DeletedUserName
		u.Profile = ""
		u.IconKey = ""
		u.IsDeleted = true
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUserDelete, err)
	}
	return user, nil
}

func (s *UserService) modify(ctx context.Context, auth0ID string, apply func(*models.User)) (*models.User, error) {
	found, err := s.GetByAuth0ID(ctx, auth0ID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(found.ID)
	defer unlock()

	user, err := s.GetByID(ctx, found.ID)
	if err != nil {
		return nil, err
	}
	apply(user)
	user.UpdatedAt = s.now()
	if err := s.users.Set(ctx, user.ID, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Signup creates the local user and, for non-Google logins, copies the chosen
// name to Auth0. A failed name sync does not fail the sign-up.
func (s *UserService) Signup(ctx context.Context, auth0ID string, input *models.UserInput) (*models.User, error) {
	user, err := s.Create(ctx, auth0ID, input)
	if err != nil {
		return nil, err
	}
	s.syncName(ctx, auth0ID, user.Name)
	return user, nil
}

// UpdateProfile is Update plus the same Auth0 name sync as Signup.
func (s *UserService) UpdateProfile(ctx context.Context, auth0ID string, input *models.UserInput) (*models.User, error) {
	user, err := s.Update(ctx, auth0ID, input)
	if err != nil {
		return nil, err
	}
	s.syncName(ctx, auth0ID, user.Name)
	return user, nil
}

// ChangeEmail updates the Auth0 login email and triggers verification.
func (s *UserService) ChangeEmail(ctx context.Context, auth0ID, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrUserUpdateEmail
	}
	if err := s.idp.UpdateEmail(ctx, auth0ID, email); err != nil {
		return fmt.Errorf("%w: %w", ErrUserUpdateEmail, err)
	}
	return nil
}

// CancelSignup removes an Auth0 identity that never finished signing up.
func (s *UserService) CancelSignup(ctx context.Context, auth0ID string) error {
	if err := s.idp.DeleteUser(ctx, auth0ID); err != nil {
		return fmt.Errorf("%w: %w", ErrUserDeleteAuth0, err)
	}
	return nil
}

// Withdraw hard-deletes the Auth0 identity, then soft-deletes the local user.
// The local step is skipped when the remote delete fails; a local failure
// after a remote success is not rolled back.
func (s *UserService) Withdraw(ctx context.Context, auth0ID string) error {
	if err := s.idp.DeleteUser(ctx, auth0ID); err != nil {
		return fmt.Errorf("%w: %w", ErrUserDelete, err)
	}
	if _, err := s.Delete(ctx, auth0ID); err != nil {
		slog.Error("local withdrawal failed after auth0 delete", "auth0_id", auth0ID, "error", err)
		if errors.Is(err, ErrUserDelete) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUserDelete, err)
	}
	return nil
}

func (s *UserService) syncName(ctx context.Context, auth0ID, name string) {
	if strings.HasPrefix(auth0ID, googleSubPrefix) {
		return
	}
	if err := s.idp.UpdateName(ctx, auth0ID, name); err != nil {
		slog.Warn("auth0 name sync failed", "auth0_id", auth0ID, "error", err)
	}
}
