// Package catalog is the read-side contract with the catalog collaborator,
// which owns content metadata, access policies and source descriptors. This
// service treats both as opaque inputs.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Vankh007/tv4u-sub002/internal/models"
)

type Provider interface {
	ContentAccess(ctx context.Context, contentID, contentType string) (models.AccessPolicy, models.SourceDescriptor, error)
}

type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type contentAccessResponse struct {
	Policy models.PolicyRecord     `json:"policy"`
	Source models.SourceDescriptor `json:"source"`
}

func (p *HTTPProvider) ContentAccess(ctx context.Context, contentID, contentType string) (models.AccessPolicy, models.SourceDescriptor, error) {
	endpoint := fmt.Sprintf("%s/internal/content/%s/%s/access", p.baseURL, contentType, contentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.SourceDescriptor{}, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, models.SourceDescriptor{}, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.SourceDescriptor{}, fmt.Errorf("catalog returned %d for %s/%s", resp.StatusCode, contentType, contentID)
	}

	var body contentAccessResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, models.SourceDescriptor{}, fmt.Errorf("decode catalog response: %w", err)
	}

	policy, err := body.Policy.Policy()
	if err != nil {
		return nil, models.SourceDescriptor{}, fmt.Errorf("catalog policy for %s/%s: %w", contentType, contentID, err)
	}

	return policy, body.Source, nil
}
