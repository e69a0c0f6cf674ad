package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlease "rentverse/internal/domain/lease"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
	"rentverse/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type LeaseRepository struct {
	col *mongo.Collection
}

func NewLeaseRepository(db *mongo.Database) *LeaseRepository {
	col := db.Collection("agg_lease")
	idx := mongo.IndexModel{Keys: bson.D{
		{Key: "property_id", Value: 1},
		{Key: "status", Value: 1},
		{Key: "range.start", Value: 1},
	}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &LeaseRepository{col: col}
}

func (r *LeaseRepository) ByID(ctx context.Context, id domainlease.LeaseID) (*domainlease.Lease, error) {
	var doc leaseDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlease.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save performs a versioned upsert. A lost race on the version filter
// surfaces as ErrConcurrentUpdate rather than a silent overwrite.
func (r *LeaseRepository) Save(ctx context.Context, l *domainlease.Lease) error {
	doc := newLeaseDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *LeaseRepository) ActiveInRange(ctx context.Context, propertyID domainproperty.PropertyID, dr daterange.DateRange, exclude domainlease.LeaseID) ([]*domainlease.Lease, error) {
	statuses := make([]string, 0, len(domainlease.ActiveStatuses))
	for _, s := range domainlease.ActiveStatuses {
		statuses = append(statuses, string(s))
	}
	// Half-open overlap: existing.start < candidate.end AND existing.end >
	// candidate.start.
	filter := bson.M{
		"property_id": string(propertyID),
		"status":      bson.M{"$in": statuses},
		"range.start": bson.M{"$lt": dr.End.UnixMilli()},
		"range.end":   bson.M{"$gt": dr.Start.UnixMilli()},
	}
	if exclude != "" {
		filter["_id"] = bson.M{"$ne": string(exclude)}
	}
	return r.find(ctx, filter)
}

func (r *LeaseRepository) ListByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]*domainlease.Lease, error) {
	return r.find(ctx, bson.M{"property_id": string(propertyID)})
}

func (r *LeaseRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domainlease.Lease, error) {
	return r.find(ctx, bson.M{"tenant_id": tenantID})
}

func (r *LeaseRepository) find(ctx context.Context, filter bson.M) ([]*domainlease.Lease, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainlease.Lease
	for cur.Next(ctx) {
		var doc leaseDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type leaseDocument struct {
	ID         string        `bson:"_id"`
	PropertyID string        `bson:"property_id"`
	TenantID   string        `bson:"tenant_id"`
	OwnerID    string        `bson:"owner_id"`
	Range      rangeDocument `bson:"range"`
	RentAmount int64         `bson:"rent_amount"`
	Currency   string        `bson:"currency"`
	Notes      string        `bson:"notes"`
	Status     string        `bson:"status"`
	CreatedAt  int64         `bson:"created_at"`
	UpdatedAt  int64         `bson:"updated_at"`
	Version    int64         `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func newLeaseDocument(l *domainlease.Lease) leaseDocument {
	return leaseDocument{
		ID:         string(l.ID),
		PropertyID: string(l.PropertyID),
		TenantID:   l.TenantID,
		OwnerID:    l.OwnerID,
		Range:      rangeDocument{Start: l.Range.Start.UnixMilli(), End: l.Range.End.UnixMilli()},
		RentAmount: l.RentAmount.Amount,
		Currency:   l.RentAmount.Currency,
		Notes:      l.Notes,
		Status:     string(l.Status),
		CreatedAt:  l.CreatedAt.UnixMilli(),
		UpdatedAt:  l.UpdatedAt.UnixMilli(),
		Version:    l.Version,
	}
}

func (d leaseDocument) toAggregate() *domainlease.Lease {
	return &domainlease.Lease{
		ID:         domainlease.LeaseID(d.ID),
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		TenantID:   d.TenantID,
		OwnerID:    d.OwnerID,
		Range:      daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		RentAmount: money.Money{Amount: d.RentAmount, Currency: d.Currency},
		Notes:      d.Notes,
		Status:     domainlease.Status(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
