package agreements

import (
	"context"
	"fmt"

	"rentverse/internal/app/policies"
	domainlease "rentverse/internal/domain/lease"
)

// Noop issues synthetic document ids when no document service is configured.
type Noop struct{}

func (Noop) GenerateAgreement(ctx context.Context, l *domainlease.Lease) (string, error) {
	return fmt.Sprintf("agreement-%s", l.ID), nil
}

var _ policies.AgreementPort = Noop{}
