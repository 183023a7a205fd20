package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	user, err := f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "taro", Profile: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsDeleted)

	stored, err := f.users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "auth0|taro", stored.Auth0ID)
	assert.Equal(t, "taro", stored.Name)
	assert.Equal(t, "hello", stored.Profile)
	assert.Empty(t, stored.IconKey)
	assert.False(t, stored.IsDeleted)
	assert.Zero(t, stored.AllEvaluationNum)
}

func TestCreateUserWithoutInputWritesNothing(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	user, err := f.userSvc.Create(ctx, "auth0|taro", nil)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserInputRequired)

	all, err := f.users.Filter(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateUserRejectsTakenAuth0ID(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "taro"})
	require.NoError(t, err)

	_, err = f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "again"})
	assert.ErrorIs(t, err, ErrAuth0IDTaken)
}

func TestCreateUserStripsMarkup(t *testing.T) {
	f := newFixture(t, "")

	user, err := f.userSvc.Create(context.Background(), "auth0|x", &models.UserInput{
		Name:    "<b>taro</b>",
		Profile: "<script>alert(1)</script>Tom & Jerry",
	})
	require.NoError(t, err)
	assert.Equal(t, "taro", user.Name)
	assert.Equal(t, "Tom & Jerry", user.Profile)
}

func TestGetUser(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	created, err := f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "taro"})
	require.NoError(t, err)

	byAuth0, err := f.userSvc.GetByAuth0ID(ctx, "auth0|taro")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byAuth0.ID)

	byID, err := f.userSvc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "taro", byID.Name)

	_, err = f.userSvc.GetByAuth0ID(ctx, "auth0|nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.userSvc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUserOverwritesProfile(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	created, err := f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "taro", Profile: "hello", IconKey: ""})
	require.NoError(t, err)

	updated, err := f.userSvc.Update(ctx, "auth0|taro", &models.UserInput{Name: "jiro", Profile: "hi", IconKey: ""})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "jiro", updated.Name)

	// Fields left out of the new input are not carried over.
	_, err = f.userSvc.Update(ctx, "auth0|taro", &models.UserInput{Name: "saburo"})
	require.NoError(t, err)

	stored, err := f.users.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "saburo", stored.Name)
	assert.Empty(t, stored.Profile)
	assert.Equal(t, "auth0|taro", stored.Auth0ID)
	assert.False(t, stored.IsDeleted)
}

func TestUpdateUserKeepsCounters(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	user, err := f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "taro"})
	require.NoError(t, err)
	_, err = f.evalSvc.Create(ctx, validEvaluation(), user.ID)
	require.NoError(t, err)

	updated, err := f.userSvc.Update(ctx, "auth0|taro", &models.UserInput{Name: "jiro"})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.AllEvaluationNum)
}

func TestUpdateUserErrors(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.userSvc.Update(ctx, "auth0|taro", nil)
	assert.ErrorIs(t, err, ErrUserInputRequired)

	_, err = f.userSvc.Update(ctx, "auth0|nobody", &models.UserInput{Name: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserScrubs(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	created, err := f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "taro", Profile: "hello", IconKey: "user/auth0|taro/1.png"})
	require.NoError(t, err)

	deleted, err := f.userSvc.Delete(ctx, "auth0|taro")
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.True(t, deleted.IsDeleted)
	assert.NotEqual(t, "auth0|taro", deleted.Auth0ID)
	assert.NotEmpty(t, deleted.Auth0ID)
	assert.Equal(t, models.DeletedUserName, deleted.Name)
	assert.Empty(t, deleted.Profile)
	assert.Empty(t, deleted.IconKey)

	_, err = f.userSvc.GetByAuth0ID(ctx, "auth0|taro")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// The freed login can sign up again.
	again, err := f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "taro"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, again.ID)
}

func TestSignupSyncsNameForNonGoogleLogins(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.userSvc.Signup(ctx, "auth0|taro", &models.UserInput{Name: "taro"})
	require.NoError(t, err)
	_, err = f.userSvc.Signup(ctx, "google-oauth2|123", &models.UserInput{Name: "hanako"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"auth0|taro": "taro"}, f.idp.names)

	_, err = f.userSvc.UpdateProfile(ctx, "auth0|taro", &models.UserInput{Name: "jiro"})
	require.NoError(t, err)
	assert.Equal(t, "jiro", f.idp.names["auth0|taro"])
}

func TestSignupIgnoresNameSyncFailure(t *testing.T) {
	f := newFixture(t, "")
	f.idp.err = errors.New("auth0 down")

	user, err := f.userSvc.Signup(context.Background(), "auth0|taro", &models.UserInput{Name: "taro"})
	require.NoError(t, err)
	assert.Equal(t, "taro", user.Name)
}

func TestChangeEmail(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	require.NoError(t, f.userSvc.ChangeEmail(ctx, "auth0|taro", " taro@example.com "))
	assert.Equal(t, "taro@example.com", f.idp.emails["auth0|taro"])

	assert.ErrorIs(t, f.userSvc.ChangeEmail(ctx, "auth0|taro", ""), ErrUserUpdateEmail)

	f.idp.err = errors.New("rate limited")
	assert.ErrorIs(t, f.userSvc.ChangeEmail(ctx, "auth0|taro", "x@example.com"), ErrUserUpdateEmail)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	created, err := f.userSvc.Create(ctx, "auth0|taro", &models.UserInput{Name: "taro"})
	require.NoError(t, err)

	f.idp.err = errors.New("auth0 down")
	assert.ErrorIs(t, f.userSvc.Withdraw(ctx, "auth0|taro"), ErrUserDelete)
	stored, err := f.users.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDeleted, "local user must survive a failed remote delete")

	f.idp.err = nil
	require.NoError(t, f.userSvc.Withdraw(ctx, "auth0|taro"))
	assert.Equal(t, []string{"auth0|taro"}, f.idp.deleted)

	stored, err = f.users.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
}

func TestCancelSignup(t *testing.T) {
	f := newFixture(t, "")

	require.NoError(t, f.userSvc.CancelSignup(context.Background(), "auth0|half"))
	assert.Equal(t, []string{"auth0|half"}, f.idp.deleted)

	f.idp.err = errors.New("boom")
	assert.ErrorIs(t, f.userSvc.CancelSignup(context.Background(), "auth0|half"), ErrUserDeleteAuth0)

	all, err := f.users.Filter(context.Background(), repository.Where{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
