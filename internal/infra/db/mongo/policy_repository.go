package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpolicy "rentverse/internal/domain/policy"
)

// policyDocID pins the singleton auto-approve policy to one well-known
// document.
const policyDocID = "auto-approve-policy"

type PolicyRepository struct {
	col *mongo.Collection
}

func NewPolicyRepository(db *mongo.Database) *PolicyRepository {
	return &PolicyRepository{col: db.Collection("app_policy")}
}

func (r *PolicyRepository) Get(ctx context.Context) (*domainpolicy.AutoApprovePolicy, error) {
	var doc policyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": policyDocID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpolicy.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PolicyRepository) Save(ctx context.Context, p *domainpolicy.AutoApprovePolicy) error {
	doc := policyDocument{
		ID:        policyDocID,
		Enabled:   p.Enabled,
		UpdatedBy: p.UpdatedBy,
		UpdatedAt: p.UpdatedAt.UnixMilli(),
		Version:   p.Version + 1,
	}
	filter := bson.M{"_id": policyDocID, "version": p.Version}
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
	p.Version = doc.Version
	return nil
}

type policyDocument struct {
	ID        string `bson:"_id"`
	Enabled   bool   `bson:"enabled"`
	UpdatedBy string `bson:"updated_by"`
	UpdatedAt int64  `bson:"updated_at"`
	Version   int64  `bson:"version"`
}

func (d policyDocument) toAggregate() *domainpolicy.AutoApprovePolicy {
	return &domainpolicy.AutoApprovePolicy{
		Enabled:   d.Enabled,
		UpdatedBy: d.UpdatedBy,
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}
