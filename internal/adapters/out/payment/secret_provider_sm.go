// internal/adapters/out/payment/secret_provider_sm.go
package payment

import (
	"context"
	"errors"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretManagerAPIKey resolves the gateway API key from Secret Manager.
// name: projects/<projectID>/secrets/<secretID>/versions/<version>.
type SecretManagerAPIKey struct {
	SM        *secretmanager.Client
	ProjectID string
	SecretID  string
	Version   string
}

func (p *SecretManagerAPIKey) APIKey(ctx context.Context) (string, error) {
	if p == nil || p.SM == nil {
		return "", errors.New("payment: secret manager client not configured")
	}

	prj := strings.TrimSpace(p.ProjectID)
	sid := strings.TrimSpace(p.SecretID)
	if prj == "" || sid == "" {
		return "", errors.New("payment: secret manager projectID/secretID are required")
	}
	ver := strings.TrimSpace(p.Version)
	if ver == "" {
		ver = "latest"
	}

	name := "projects/" + prj + "/secrets/" + sid + "/versions/" + ver
	resp, err := p.SM.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", errors.New("payment: AccessSecretVersion failed (" + name + "): " + err.Error())
	}
	if resp == nil || resp.Payload == nil {
		return "", errors.New("payment: empty secret payload (" + name + ")")
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}
