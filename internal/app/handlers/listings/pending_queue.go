package listings

import (
	"context"
	"errors"
	"time"

	"rentverse/internal/app/queries"
	"rentverse/internal/app/uow"
	domainproperty "rentverse/internal/domain/property"
)

const pendingListingsKey = "listing.pending_queue"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type PendingListingsQuery struct {
	Page     int
	PageSize int
}

func (q PendingListingsQuery) Key() string { return pendingListingsKey }

type PendingListing struct {
	PropertyID  string    `json:"property_id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type PendingListingsResult struct {
	Items    []PendingListing `json:"items"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int64            `json:"total"`
}

// PendingListingsHandler serves the review queue. An item qualifies only
// when the property is PENDING_REVIEW and its approval record is still
// PENDING: the double condition keeps listings resolved through another path
// out of the administrators' queue.
type PendingListingsHandler struct {
	UoWFactory uow.Factory
}

func (h *PendingListingsHandler) Handle(ctx context.Context, q PendingListingsQuery) (*PendingListingsResult, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	result := &PendingListingsResult{Page: page, PageSize: size, Items: []PendingListing{}}
	err := uow.Run(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true}, func(ctx context.Context, unit uow.UnitOfWork) error {
		props, total, err := unit.Properties().PendingReview(ctx, (page-1)*size, size)
		if err != nil {
			return err
		}
		result.Total = total
		for _, prop := range props {
			approval, err := unit.Approvals().ByPropertyID(ctx, prop.ID)
			if err != nil {
				if errors.Is(err, domainproperty.ErrApprovalNotFound) {
					continue
				}
				return err
			}
			if approval.Status != domainproperty.ApprovalPending {
				continue
			}
			result.Items = append(result.Items, PendingListing{
				PropertyID:  string(prop.ID),
				OwnerID:     prop.OwnerID,
				Title:       prop.Title,
				SubmittedAt: prop.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ queries.Handler[PendingListingsQuery, *PendingListingsResult] = (*PendingListingsHandler)(nil)
