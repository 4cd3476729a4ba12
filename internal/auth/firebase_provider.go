package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/darsni/backend/internal/config"
	"github.com/darsni/backend/internal/domain"
)

// firebaseAuthClient is the subset of the Firebase Admin auth client we call.
type firebaseAuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	GetUser(ctx context.Context, uid string) (*fbauth.UserRecord, error)
}

// FirebaseProvider verifies Firebase ID tokens and loads the current user record,
// so custom-claim changes apply on the next request.
type FirebaseProvider struct {
	client firebaseAuthClient
}

// NewFirebaseProvider initializes the Firebase Admin SDK for the configured project.
func NewFirebaseProvider(ctx context.Context, cfg config.FirebaseConfig, logger *zap.Logger) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		logger.Warn("firebase credentials file not set; using application default credentials")
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}

	logger.Info("firebase auth initialized", zap.String("project_id", cfg.ProjectID))
	return &FirebaseProvider{client: client}, nil
}

// VerifyIdentityToken implements IdentityProvider.
func (p *FirebaseProvider) VerifyIdentityToken(ctx context.Context, token string) (*domain.ProviderIdentity, error) {
	decoded, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	record, err := p.client.GetUser(ctx, decoded.UID)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", decoded.UID, err)
	}

	identity := &domain.ProviderIdentity{
		PrincipalID:      decoded.UID,
		EmailVerified:    record.EmailVerified,
		CustomAttributes: record.CustomClaims,
	}
	if record.UserInfo != nil {
		identity.Email = record.Email
		identity.DisplayName = record.DisplayName
		identity.PhotoURL = record.PhotoURL
	}
	return identity, nil
}
