// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	inhttp "atelier/internal/adapters/in/http"
	"atelier/internal/adapters/in/http/handler"
	"atelier/internal/adapters/in/http/middleware"
	fsadapter "atelier/internal/adapters/out/firestore"
	"atelier/internal/adapters/out/gcs"
	"atelier/internal/adapters/out/localcache"
	"atelier/internal/adapters/out/mail"
	"atelier/internal/adapters/out/payment"
	"atelier/internal/application/checkout"
	"atelier/internal/application/collection"
	"atelier/internal/application/likes"
	"atelier/internal/application/onboarding"
	"atelier/internal/application/session"
	appcfg "atelier/internal/infra/config"
)

// Container owns the external clients, the local cache, and the engines.
// All dependencies are passed in explicitly; nothing reads ambient globals
// after Load().
type Container struct {
	Config *appcfg.Config
	Log    *slog.Logger

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	GCS           *storage.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client

	Cache *localcache.Cache

	// Engines
	Session  *session.Session
	Cart     *collection.CartEngine
	Wishlist *collection.WishlistEngine
	Likes    *likes.Engine

	// Usecases
	Checkout   *checkout.Usecase
	Onboarding *onboarding.Usecase
}

// New initializes the container. Firestore and the local cache are strict;
// GCS, Secret Manager, and Firebase Auth are best-effort (warn + continue)
// so local development works without full GCP credentials.
func New(ctx context.Context, cfg *appcfg.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("di: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	}

	c := &Container{Config: cfg, Log: logger}

	var clientOpts []option.ClientOption
	if cred := strings.TrimSpace(cfg.CredentialsFile); cred != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cred))
	}

	// Firestore (strict)
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("di: firestore.NewClient failed (project=%s): %w", cfg.ProjectID, err)
	}
	c.Firestore = fsClient
	logger.Info("firestore connected", "project", cfg.ProjectID)

	// Local cache (strict)
	cache, err := localcache.Open(cfg.CachePath)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("di: open local cache %s: %w", cfg.CachePath, err)
	}
	c.Cache = cache

	// GCS (best-effort: onboarding uploads disabled without it)
	if gcsClient, err := storage.NewClient(ctx, clientOpts...); err != nil {
		logger.Warn("gcs client init failed, onboarding uploads disabled", "err", err)
	} else {
		c.GCS = gcsClient
	}

	// Secret Manager (best-effort: falls back to PAYMENT_API_KEY)
	if sm, err := secretmanager.NewClient(ctx, clientOpts...); err != nil {
		logger.Warn("secretmanager client init failed", "err", err)
	} else {
		c.SecretManager = sm
	}

	// Firebase Auth (best-effort: token-verified routes 503 without it)
	if fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, clientOpts...); err != nil {
		logger.Warn("firebase app init failed", "err", err)
	} else {
		c.FirebaseApp = fbApp
		if authClient, err := fbApp.Auth(ctx); err != nil {
			logger.Warn("firebase auth init failed", "err", err)
		} else {
			c.FirebaseAuth = authClient
		}
	}

	c.wire(logger)
	return c, nil
}

// wire builds the engines and usecases on top of the clients.
func (c *Container) wire(logger *slog.Logger) {
	cfg := c.Config

	identityRepo := fsadapter.NewIdentityRepositoryFS(c.Firestore)
	likeRepo := fsadapter.NewLikeRepositoryFS(c.Firestore)

	c.Session = session.New(identityRepo, logger)
	c.Cart = collection.NewCartEngine(c.Cache, fsadapter.NewCartRemoteFS(c.Firestore), logger)
	c.Wishlist = collection.NewWishlistEngine(c.Cache, fsadapter.NewWishlistRemoteFS(c.Firestore), logger)
	c.Likes = likes.New(likeRepo, func() string { return c.Session.Current().UID }, logger)

	// engines follow every identity transition
	c.Session.RegisterListener(c.Cart)
	c.Session.RegisterListener(c.Wishlist)
	c.Session.RegisterListener(c.Likes)

	var keys payment.APIKeyProvider = payment.StaticAPIKey(cfg.PaymentAPIKeyPlain)
	if c.SecretManager != nil {
		keys = &payment.SecretManagerAPIKey{
			SM:        c.SecretManager,
			ProjectID: cfg.ProjectID,
			SecretID:  cfg.PaymentSecretID,
		}
	}
	gateway := payment.NewHTTPGateway(cfg.PaymentBaseURL, keys)
	c.Checkout = checkout.New(gateway, c.Cart, logger)

	kycRepo := gcs.NewKycRepositoryGCS(c.GCS, cfg.KycBucket)
	mailer := mail.NewOnboardingMailer(mail.NewSendGridClient(cfg.SendGridAPIKey), cfg.MailFrom)
	c.Onboarding = onboarding.New(kycRepo, identityRepo, c.Session, mailer, logger)
}

// Router builds the HTTP surface over the wired engines.
func (c *Container) Router() *inhttp.Deps {
	return &inhttp.Deps{
		Auth:           &middleware.UserAuth{FirebaseAuth: c.FirebaseAuth},
		Session:        handler.NewSessionHandler(c.Session),
		Cart:           handler.NewCartHandler(c.Cart),
		Wishlist:       handler.NewWishlistHandler(c.Wishlist),
		Likes:          handler.NewLikeHandler(c.Likes),
		Checkout:       handler.NewCheckoutHandler(c.Checkout),
		Onboarding:     handler.NewOnboardingHandler(c.Onboarding),
		AllowedOrigins: c.Config.AllowedOrigins,
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Firestore != nil {
		_ = c.Firestore.Close()
	}
	if c.GCS != nil {
		_ = c.GCS.Close()
	}
	if c.SecretManager != nil {
		_ = c.SecretManager.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	return nil
}
