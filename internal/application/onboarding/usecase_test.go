package onboarding

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/domain/identity"
)

type fakeDocs struct {
	uploads []string
	err     error
}

func (d *fakeDocs) Upload(ctx context.Context, uid, fileName, contentType string, body io.Reader) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	url := "gs://kyc/" + uid + "/" + fileName
	d.uploads = append(d.uploads, url)
	return url, nil
}

type fakeRecords struct {
	uid    string
	status identity.OnboardingStatus
	data   map[string]any
	calls  int
	err    error
}

func (r *fakeRecords) SetOnboarding(ctx context.Context, uid string, status identity.OnboardingStatus, data map[string]any) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.uid, r.status, r.data = uid, status, data
	return nil
}

type fakeSession struct {
	status identity.OnboardingStatus
	calls  int
}

func (s *fakeSession) SetOnboarding(ctx context.Context, status identity.OnboardingStatus, data map[string]any) error {
	s.calls++
	s.status = status
	return nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  int
	to    string
	count int
}

func (m *fakeMailer) SendApplicationReceived(ctx context.Context, toEmail, displayName string, documentCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	m.to = toEmail
	m.count = documentCount
	return nil
}

func (m *fakeMailer) snapshot() (int, string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent, m.to, m.count
}

func submission() Submission {
	return Submission{
		UID:         "u1",
		Email:       "tailor@example.com",
		DisplayName: "Aoi",
		Atelier:     "Aoi Atelier",
		Specialty:   "suits",
		Documents: []Document{
			{FileName: "portfolio.pdf", ContentType: "application/pdf", Body: strings.NewReader("pdf")},
			{FileName: "certificate.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpg")},
		},
	}
}

func TestSubmitUploadsPersistsAndMails(t *testing.T) {
	docs := &fakeDocs{}
	records := &fakeRecords{}
	sess := &fakeSession{}
	mailer := &fakeMailer{}
	u := New(docs, records, sess, mailer, nil)

	err := u.Submit(context.Background(), submission())

	require.NoError(t, err)
	assert.Len(t, docs.uploads, 2)
	assert.Equal(t, "u1", records.uid)
	assert.Equal(t, identity.OnboardingSubmitted, records.status)
	assert.Equal(t, docs.uploads, records.data["documentUrls"])
	assert.Equal(t, "Aoi Atelier", records.data["atelier"])
	assert.Equal(t, identity.OnboardingSubmitted, sess.status)

	// confirmation mail is fire-and-forget
	assert.Eventually(t, func() bool {
		sent, to, count := mailer.snapshot()
		return sent == 1 && to == "tailor@example.com" && count == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSubmitRequiresDocuments(t *testing.T) {
	u := New(&fakeDocs{}, &fakeRecords{}, nil, nil, nil)

	sub := submission()
	sub.Documents = nil

	err := u.Submit(context.Background(), sub)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestSubmitUploadFailureLeavesRecordUntouched(t *testing.T) {
	records := &fakeRecords{}
	u := New(&fakeDocs{err: assert.AnError}, records, nil, &fakeMailer{}, nil)

	err := u.Submit(context.Background(), submission())

	require.Error(t, err)
	assert.Zero(t, records.calls)
}

func TestSubmitRecordWriteFailureReported(t *testing.T) {
	records := &fakeRecords{err: assert.AnError}
	sess := &fakeSession{}
	u := New(&fakeDocs{}, records, sess, nil, nil)

	err := u.Submit(context.Background(), submission())

	require.Error(t, err)
	assert.Zero(t, sess.calls)
}

func TestSubmitRejectsEmptyUID(t *testing.T) {
	u := New(&fakeDocs{}, &fakeRecords{}, nil, nil, nil)

	sub := submission()
	sub.UID = "  "

	err := u.Submit(context.Background(), sub)
	assert.ErrorIs(t, err, identity.ErrInvalidUID)
}
