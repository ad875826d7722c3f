// internal/application/onboarding/usecase.go
package onboarding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/domain/identity"
)

var (
	ErrNoDocuments = errors.New("onboarding: at least one document is required")
)

// DocumentStore uploads a supporting document and returns its storage URL.
type DocumentStore interface {
	Upload(ctx context.Context, uid, fileName, contentType string, body io.Reader) (string, error)
}

// Mailer confirms a received application; delivery is best-effort.
type Mailer interface {
	SendApplicationReceived(ctx context.Context, toEmail, displayName string, documentCount int) error
}

// Records is the identity-record slice the usecase writes to.
type Records interface {
	SetOnboarding(ctx context.Context, uid string, status identity.OnboardingStatus, data map[string]any) error
}

// Roles updates the in-memory session once the submission is persisted.
type Roles interface {
	SetOnboarding(ctx context.Context, status identity.OnboardingStatus, data map[string]any) error
}

// Document is one uploaded file of a tailor application.
type Document struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Submission is a tailor onboarding application.
type Submission struct {
	UID         string
	Email       string
	DisplayName string
	Atelier     string
	Specialty   string
	Documents   []Document
}

const mailTimeout = 10 * time.Second

type Usecase struct {
	docs    DocumentStore
	records Records
	session Roles
	mailer  Mailer
	log     *slog.Logger
}

func New(docs DocumentStore, records Records, session Roles, mailer Mailer, logger *slog.Logger) *Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Usecase{
		docs:    docs,
		records: records,
		session: session,
		mailer:  mailer,
		log:     logger.With("component", "onboarding"),
	}
}

// Submit uploads the supporting documents, marks the identity record as
// submitted, and mails a confirmation. The role itself is only granted
// later, on approval; submission never touches the role set.
func (u *Usecase) Submit(ctx context.Context, sub Submission) error {
	uid := strings.TrimSpace(sub.UID)
	if uid == "" {
		return identity.ErrInvalidUID
	}
	if len(sub.Documents) == 0 {
		return ErrNoDocuments
	}

	urls := make([]string, 0, len(sub.Documents))
	for _, doc := range sub.Documents {
		url, err := u.docs.Upload(ctx, uid, doc.FileName, doc.ContentType, doc.Body)
		if err != nil {
			return err
		}
		urls = append(urls, url)
	}

	data := map[string]any{
		"atelier":      strings.TrimSpace(sub.Atelier),
		"specialty":    strings.TrimSpace(sub.Specialty),
		"documentUrls": urls,
	}
	if err := u.records.SetOnboarding(ctx, uid, identity.OnboardingSubmitted, data); err != nil {
		return err
	}

	if u.session != nil {
		if err := u.session.SetOnboarding(ctx, identity.OnboardingSubmitted, data); err != nil {
			u.log.Warn("session onboarding update failed", "uid", uid, "err", err)
		}
	}

	if u.mailer != nil && strings.TrimSpace(sub.Email) != "" {
		go func() {
			mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
			defer cancel()
			if err := u.mailer.SendApplicationReceived(mctx, sub.Email, sub.DisplayName, len(urls)); err != nil {
				u.log.Warn("confirmation mail failed", "uid", uid, "err", err)
			}
		}()
	}

	u.log.Info("tailor application submitted", "uid", uid, "documents", len(urls))
	return nil
}
