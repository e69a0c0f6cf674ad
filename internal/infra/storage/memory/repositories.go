package memory

import (
	"context"
	"sort"
	"sync"

	domainlease "rentverse/internal/domain/lease"
	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
)

// PropertyRepository is an in-memory implementation for tests and demo runs.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.PropertyID]*domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.PropertyID]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.ClearEvents()
	cp.Version++
	r.items[p.ID] = &cp
	p.Version = cp.Version
	return nil
}

func (r *PropertyRepository) PendingReview(ctx context.Context, offset, limit int) ([]*domainproperty.Property, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainproperty.Property, 0)
	for _, p := range r.items {
		if p.Status == domainproperty.StatusPendingReview {
			cp := *p
			matches = append(matches, &cp)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	total := int64(len(matches))
	if offset >= len(matches) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], total, nil
}

// ApprovalRepository keeps listing approval records keyed by property id. It
// holds a reference to the property repository so Mismatched can compare
// statuses the way the Mongo implementation does with a join.
type ApprovalRepository struct {
	mu         sync.RWMutex
	items      map[domainproperty.PropertyID]*domainproperty.Approval
	properties *PropertyRepository
}

func NewApprovalRepository(properties *PropertyRepository) *ApprovalRepository {
	return &ApprovalRepository{
		items:      make(map[domainproperty.PropertyID]*domainproperty.Approval),
		properties: properties,
	}
}

func (r *ApprovalRepository) ByPropertyID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Approval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrApprovalNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *ApprovalRepository) Save(ctx context.Context, a *domainproperty.Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	cp.Version++
	r.items[a.PropertyID] = &cp
	a.Version = cp.Version
	return nil
}

func (r *ApprovalRepository) Mismatched(ctx context.Context) ([]*domainproperty.Approval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainproperty.Approval
	for id, a := range r.items {
		p, err := r.properties.ByID(ctx, id)
		if err != nil {
			continue
		}
		if !a.Consistent(p) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyID < out[j].PropertyID })
	return out, nil
}

// LeaseRepository stores leases with the overlap query used by the
// availability checker.
type LeaseRepository struct {
	mu    sync.RWMutex
	items map[domainlease.LeaseID]*domainlease.Lease
}

func NewLeaseRepository() *LeaseRepository {
	return &LeaseRepository{items: make(map[domainlease.LeaseID]*domainlease.Lease)}
}

func (r *LeaseRepository) ByID(ctx context.Context, id domainlease.LeaseID) (*domainlease.Lease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domainlease.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *LeaseRepository) Save(ctx context.Context, l *domainlease.Lease) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	cp.ClearEvents()
	cp.Version++
	r.items[l.ID] = &cp
	l.Version = cp.Version
	return nil
}

func (r *LeaseRepository) ActiveInRange(ctx context.Context, propertyID domainproperty.PropertyID, dr daterange.DateRange, exclude domainlease.LeaseID) ([]*domainlease.Lease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainlease.Lease
	for _, l := range r.items {
		if l.PropertyID != propertyID || l.ID == exclude {
			continue
		}
		if !l.Status.HoldsCalendarSlot() {
			continue
		}
		if !l.Range.Overlaps(dr) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Before(out[j].Range.Start) })
	return out, nil
}

func (r *LeaseRepository) ListByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]*domainlease.Lease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainlease.Lease
	for _, l := range r.items {
		if l.PropertyID == propertyID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *LeaseRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domainlease.Lease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainlease.Lease
	for _, l := range r.items {
		if l.TenantID == tenantID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// PolicyRepository holds the singleton auto-approve policy.
type PolicyRepository struct {
	mu     sync.RWMutex
	policy *domainpolicy.AutoApprovePolicy
}

func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{}
}

func (r *PolicyRepository) Get(ctx context.Context) (*domainpolicy.AutoApprovePolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.policy == nil {
		return nil, domainpolicy.ErrNotFound
	}
	cp := *r.policy
	return &cp, nil
}

func (r *PolicyRepository) Save(ctx context.Context, p *domainpolicy.AutoApprovePolicy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.Version++
	r.policy = &cp
	p.Version = cp.Version
	return nil
}
