package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "rentverse/internal/domain/property"
)

type ApprovalRepository struct {
	col *mongo.Collection
}

func NewApprovalRepository(db *mongo.Database) *ApprovalRepository {
	return &ApprovalRepository{col: db.Collection("agg_listing_approval")}
}

func (r *ApprovalRepository) ByPropertyID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Approval, error) {
	var doc approvalDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrApprovalNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ApprovalRepository) Save(ctx context.Context, a *domainproperty.Approval) error {
	doc := newApprovalDocument(a)
	filter := bson.M{"_id": doc.PropertyID, "version": a.Version}
	doc.Version = a.Version + 1
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
	a.Version = doc.Version
	return nil
}

// Mismatched joins approvals against their properties and returns the
// records whose status disagrees with the property's own status under the
// canonical mapping. The repair operation feeds on this.
func (r *ApprovalRepository) Mismatched(ctx context.Context) ([]*domainproperty.Approval, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "agg_property",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "property",
		}}},
		bson.D{{Key: "$unwind", Value: "$property"}},
		bson.D{{Key: "$match", Value: bson.M{
			"$expr": bson.M{"$not": bson.A{bson.M{"$or": bson.A{
				mismatchClause(domainproperty.StatusPendingReview, domainproperty.ApprovalPending),
				mismatchClause(domainproperty.StatusApproved, domainproperty.ApprovalApproved),
				mismatchClause(domainproperty.StatusRejected, domainproperty.ApprovalRejected),
				// Statuses with no approval counterpart are never mismatched.
				bson.M{"$in": bson.A{"$property.status", bson.A{
					string(domainproperty.StatusDraft),
					string(domainproperty.StatusArchived),
				}}},
			}}}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainproperty.Approval
	for cur.Next(ctx) {
		var doc approvalDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

func mismatchClause(ps domainproperty.Status, as domainproperty.ApprovalStatus) bson.M {
	return bson.M{"$and": bson.A{
		bson.M{"$eq": bson.A{"$property.status", string(ps)}},
		bson.M{"$eq": bson.A{"$status", string(as)}},
	}}
}

type approvalDocument struct {
	PropertyID string `bson:"_id"`
	Status     string `bson:"status"`
	ReviewerID string `bson:"reviewer_id"`
	Notes      string `bson:"notes"`
	ReviewedAt int64  `bson:"reviewed_at"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	Version    int64  `bson:"version"`
}

func newApprovalDocument(a *domainproperty.Approval) approvalDocument {
	doc := approvalDocument{
		PropertyID: string(a.PropertyID),
		Status:     string(a.Status),
		ReviewerID: a.ReviewerID,
		Notes:      a.Notes,
		CreatedAt:  a.CreatedAt.UnixMilli(),
		UpdatedAt:  a.UpdatedAt.UnixMilli(),
		Version:    a.Version,
	}
	if !a.ReviewedAt.IsZero() {
		doc.ReviewedAt = a.ReviewedAt.UnixMilli()
	}
	return doc
}

func (d approvalDocument) toAggregate() *domainproperty.Approval {
	a := &domainproperty.Approval{
		PropertyID: domainproperty.PropertyID(d.PropertyID),
		Status:     domainproperty.ApprovalStatus(d.Status),
		ReviewerID: d.ReviewerID,
		Notes:      d.Notes,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
	if d.ReviewedAt != 0 {
		a.ReviewedAt = timestampToTime(d.ReviewedAt)
	}
	return a
}
