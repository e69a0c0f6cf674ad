package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlease "rentverse/internal/domain/lease"
	domainproperty "rentverse/internal/domain/property"
)

const (
	lockRetryInterval = 50 * time.Millisecond
	lockLeaseTime     = 30 * time.Second
)

// CalendarLock implements the per-property advisory lock on a Mongo
// collection, so exclusion holds across processes. A lock is one document
// per property; acquisition upserts it when absent or expired, and retries
// with backoff until ctx gives up. Expiry guards against a holder that died
// without releasing.
type CalendarLock struct {
	col    *mongo.Collection
	holder string
}

func NewCalendarLock(db *mongo.Database) *CalendarLock {
	col := db.Collection("app_calendar_lock")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "expires_at", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &CalendarLock{col: col, holder: uuid.NewString()}
}

func (l *CalendarLock) Acquire(ctx context.Context, propertyID domainproperty.PropertyID) (func(), error) {
	token := l.holder + ":" + uuid.NewString()
	for {
		acquired, err := l.tryAcquire(ctx, propertyID, token)
		if err != nil {
			return nil, err
		}
		if acquired {
			return func() { l.release(propertyID, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, domainlease.ErrLockTimeout
		case <-time.After(lockRetryInterval):
		}
	}
}

func (l *CalendarLock) tryAcquire(ctx context.Context, propertyID domainproperty.PropertyID, token string) (bool, error) {
	now := time.Now().UTC()
	// Claim the slot when no document exists or the previous holder's lease
	// expired. The filter + upsert pair is atomic on the server.
	filter := bson.M{
		"_id":        string(propertyID),
		"expires_at": bson.M{"$lt": now.UnixMilli()},
	}
	update := bson.M{"$set": bson.M{
		"holder":     token,
		"expires_at": now.Add(lockLeaseTime).UnixMilli(),
	}}
	res, err := l.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the upsert race to a live holder.
			return false, nil
		}
		return false, err
	}
	return res.ModifiedCount > 0 || res.UpsertedCount > 0, nil
}

func (l *CalendarLock) release(propertyID domainproperty.PropertyID, token string) {
	// Release runs after the request ctx may already be cancelled; give it
	// its own deadline so locks are not leaked on timeout paths.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = l.col.DeleteOne(ctx, bson.M{"_id": string(propertyID), "holder": token})
}

var _ domainlease.CalendarLock = (*CalendarLock)(nil)
