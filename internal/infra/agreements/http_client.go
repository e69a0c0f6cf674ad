package agreements

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rentverse/internal/app/policies"
	domainlease "rentverse/internal/domain/lease"
)

// HTTPGenerator asks the external document service to render the rental
// agreement PDF for a committed lease. Callers treat it as fire-and-forget:
// an error here is reported, never allowed to fail the lease.
type HTTPGenerator struct {
	Client   *http.Client
	Endpoint string
}

type generateRequest struct {
	LeaseID    string    `json:"lease_id"`
	PropertyID string    `json:"property_id"`
	TenantID   string    `json:"tenant_id"`
	OwnerID    string    `json:"owner_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	RentAmount int64     `json:"rent_amount"`
	Currency   string    `json:"currency"`
}

type generateResponse struct {
	DocumentID string `json:"document_id"`
}

func (g *HTTPGenerator) GenerateAgreement(ctx context.Context, l *domainlease.Lease) (string, error) {
	if g == nil || g.Client == nil {
		return "", errors.New("agreements: http client not configured")
	}
	if g.Endpoint == "" {
		return "", errors.New("agreements: endpoint not configured")
	}
	payload, err := json.Marshal(generateRequest{
		LeaseID:    string(l.ID),
		PropertyID: string(l.PropertyID),
		TenantID:   l.TenantID,
		OwnerID:    l.OwnerID,
		StartDate:  l.Range.Start,
		EndDate:    l.Range.End,
		RentAmount: l.RentAmount.Amount,
		Currency:   l.RentAmount.Currency,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("agreements: document service returned %d", resp.StatusCode)
	}
	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.DocumentID == "" {
		return "", errors.New("agreements: document service returned empty id")
	}
	return out.DocumentID, nil
}

var _ policies.AgreementPort = (*HTTPGenerator)(nil)
