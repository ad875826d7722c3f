// internal/adapters/out/gcs/kyc_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
)

// KycRepositoryGCS stores tailor onboarding documents (portfolio photos,
// certificates) under "<uid>/<random>.<ext>" in a private bucket. Objects
// are addressed by gs:// URL; serving is done elsewhere via signed URLs.
type KycRepositoryGCS struct {
	Client *storage.Client
	Bucket string
}

func NewKycRepositoryGCS(client *storage.Client, bucket string) *KycRepositoryGCS {
	return &KycRepositoryGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
	}
}

func (r *KycRepositoryGCS) effectiveBucket() (string, error) {
	b := strings.TrimSpace(r.Bucket)
	if b == "" {
		return "", errors.New("KycRepositoryGCS: bucket is empty")
	}
	return b, nil
}

// EnsureUserFolder makes the "<uid>/" prefix visible on the console by
// writing a tiny ".keep" marker. Already-existing markers are a no-op.
func (r *KycRepositoryGCS) EnsureUserFolder(ctx context.Context, uid string) error {
	if r == nil || r.Client == nil {
		return errors.New("KycRepositoryGCS: nil storage client")
	}
	bucketName, err := r.effectiveBucket()
	if err != nil {
		return err
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("KycRepositoryGCS: uid is empty")
	}

	objName := strings.TrimLeft(uid, "/") + "/.keep"

	oh := r.Client.Bucket(bucketName).Object(objName).If(storage.Conditions{DoesNotExist: true})
	w := oh.NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	_, _ = w.Write([]byte("keep"))
	if err := w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 412 {
			return nil
		}
		return err
	}
	return nil
}

// Upload streams one onboarding document into the bucket and returns its
// gs:// URL. Object names are randomized so re-submissions never overwrite
// a document already under review.
func (r *KycRepositoryGCS) Upload(ctx context.Context, uid, fileName, contentType string, body io.Reader) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("KycRepositoryGCS: nil storage client")
	}
	bucketName, err := r.effectiveBucket()
	if err != nil {
		return "", err
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", errors.New("KycRepositoryGCS: uid is empty")
	}
	if body == nil {
		return "", errors.New("KycRepositoryGCS: body is nil")
	}

	ext := ""
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		ext = strings.ToLower(fileName[i:])
	}
	objName := fmt.Sprintf("%s/%s%s", strings.TrimLeft(uid, "/"), uuid.NewString(), ext)

	w := r.Client.Bucket(bucketName).Object(objName).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("KycRepositoryGCS: upload %s: %w", objName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("KycRepositoryGCS: finalize %s: %w", objName, err)
	}

	return fmt.Sprintf("gs://%s/%s", bucketName, objName), nil
}

// Delete removes a previously uploaded document. Missing objects are not an
// error so retried cleanups stay idempotent.
func (r *KycRepositoryGCS) Delete(ctx context.Context, gsURL string) error {
	if r == nil || r.Client == nil {
		return errors.New("KycRepositoryGCS: nil storage client")
	}

	bucketName, objName, ok := splitGSURL(gsURL)
	if !ok {
		return fmt.Errorf("KycRepositoryGCS: not a gs:// url: %q", gsURL)
	}

	err := r.Client.Bucket(bucketName).Object(objName).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func splitGSURL(u string) (bucket, object string, ok bool) {
	u = strings.TrimSpace(u)
	if !strings.HasPrefix(u, "gs://") {
		return "", "", false
	}
	rest := strings.TrimPrefix(u, "gs://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
