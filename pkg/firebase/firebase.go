package firebase

import (
	"context"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// App holds the initialized Firebase app with its auth and messaging clients
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Messaging   *messaging.Client
}

// InitFirebase initializes the Firebase application and its clients
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, errors.New("firebase credentials path not provided")
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, errors.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting firebase auth client")
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting firebase messaging client")
	}

	logger.Info("firebase app, auth and messaging clients initialized")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, Messaging: messagingClient}, nil
}
