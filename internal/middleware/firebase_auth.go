package middleware

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"

	"github.com/anonto42/inkwell/backend/internal/models"
)

// IDTokenVerifier verifies Firebase ID tokens; *fbauth.Client implements it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseUserLookup finds the local account linked to a Firebase UID.
type FirebaseUserLookup interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseResolver turns a verified Firebase ID token into local claims.
// Only accounts already linked through the firebase-login endpoint resolve.
type FirebaseResolver struct {
	verifier IDTokenVerifier
	users    FirebaseUserLookup
}

func NewFirebaseResolver(verifier IDTokenVerifier, users FirebaseUserLookup) *FirebaseResolver {
	return &FirebaseResolver{verifier: verifier, users: users}
}

func (r *FirebaseResolver) Resolve(ctx context.Context, idToken string) (*models.JwtCustomClaims, error) {
	token, err := r.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, errors.Wrap(err, "verify firebase id token")
	}
	user, err := r.users.GetUserByFirebaseUID(ctx, token.UID)
	if err != nil {
		return nil, errors.Wrap(err, "firebase user not linked")
	}
	return &models.JwtCustomClaims{UserID: user.ID, Email: user.Email}, nil
}
