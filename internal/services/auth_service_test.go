package services

import (
	"context"
	"testing"

	"github.com/anonto42/three-good-things/backend/internal/auth"
	"github.com/anonto42/three-good-things/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndSignIn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.authSvc.Signup(ctx, models.SignupRequest{Email: " Ada@Example.com ", Password: "correct-horse", DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.User.PasswordHash)
	assert.NotEqual(t, "correct-horse", resp.User.PasswordHash)

	claims, err := h.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = h.authSvc.Signup(ctx, models.SignupRequest{Email: "ADA@example.com", Password: "another-pass"})
	assert.Equal(t, KindDomain, KindOf(err))
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = h.authSvc.Signup(ctx, models.SignupRequest{Email: "short@example.com", Password: "short"})
	assert.Equal(t, KindValidation, KindOf(err))

	signedIn, err := h.authSvc.SignIn(ctx, models.SignInRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, signedIn.User.ID)

	_, err = h.authSvc.SignIn(ctx, models.SignInRequest{Email: "ada@example.com", Password: "wrong-horse"})
	assert.Equal(t, KindAuth, KindOf(err))
	_, err = h.authSvc.SignIn(ctx, models.SignInRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.Equal(t, KindAuth, KindOf(err))
}

func TestFirebaseLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	existing := h.seedUser(t, "bob@example.com", "Bob")
	h.verifier.identities["new-token"] = &auth.FirebaseIdentity{UID: "fb-new", Email: "New@Example.com", Name: "Newcomer"}
	h.verifier.identities["bob-token"] = &auth.FirebaseIdentity{UID: "fb-bob", Email: "bob@example.com"}

	created, err := h.authSvc.FirebaseLogin(ctx, "new-token")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", created.User.Email)
	assert.Equal(t, "Newcomer", created.User.Name())

	again, err := h.authSvc.FirebaseLogin(ctx, "new-token")
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, again.User.ID)

	linked, err := h.authSvc.FirebaseLogin(ctx, "bob-token")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.User.ID)
	stored, err := h.profiles.GetProfileByFirebaseUID(ctx, "fb-bob")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, stored.ID)

	_, err = h.authSvc.FirebaseLogin(ctx, "forged")
	assert.Equal(t, KindAuth, KindOf(err))
	_, err = h.authSvc.FirebaseLogin(ctx, " ")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestAuthenticate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bob := h.seedUser(t, "bob@example.com", "")
	token, _, err := h.tokens.Issue(&bob)
	require.NoError(t, err)

	claims, err := h.authSvc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, claims.UserID)

	h.verifier.identities["bob-token"] = &auth.FirebaseIdentity{UID: "fb-bob", Email: "bob@example.com"}
	_, err = h.authSvc.Authenticate(ctx, "bob-token")
	assert.Equal(t, KindAuth, KindOf(err))

	_, err = h.authSvc.FirebaseLogin(ctx, "bob-token")
	require.NoError(t, err)
	claims, err = h.authSvc.Authenticate(ctx, "bob-token")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, claims.UserID)

	_, err = h.authSvc.Authenticate(ctx, "garbage")
	assert.Equal(t, KindAuth, KindOf(err))
}
