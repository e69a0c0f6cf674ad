package policies

import (
	"context"

	domainlease "rentverse/internal/domain/lease"
)

// AgreementPort triggers generation of the rental agreement document after a
// lease is committed. It is fire-and-forget: errors are reported back to the
// caller in the response payload but never fail the lease itself.
type AgreementPort interface {
	GenerateAgreement(ctx context.Context, l *domainlease.Lease) (documentID string, err error)
}
