package auth

import (
	"context"
	"errors"

	firebaseauth "firebase.google.com/go/v4/auth"
)

var ErrMissingEmail = errors.New("firebase token has no email claim")

// FirebaseIdentity is the subset of a verified Firebase ID token the
// backend needs.
type FirebaseIdentity struct {
	UID   string
	Email string
	Name  string
}

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier interface {
	Verify(ctx context.Context, idToken string) (*FirebaseIdentity, error)
}

type firebaseVerifier struct {
	client *firebaseauth.Client
}

func NewFirebaseVerifier(client *firebaseauth.Client) FirebaseVerifier {
	return &firebaseVerifier{client: client}
}

func (v *firebaseVerifier) Verify(ctx context.Context, idToken string) (*FirebaseIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, ErrMissingEmail
	}
	name, _ := token.Claims["name"].(string)
	return &FirebaseIdentity{UID: token.UID, Email: email, Name: name}, nil
}
