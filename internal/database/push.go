package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

// PushSubscriptionUpsert inserts or refreshes a subscription keyed by
// its endpoint. Re-subscribing reactivates a previously dead endpoint.
func (db Database) PushSubscriptionUpsert(ctx context.Context, sub model.PushSubscription) error {
	set := bson.M{
		"p256dh":     sub.P256DH,
		"auth":       sub.Auth,
		"is_active":  true,
		"updated_at": time.Now(),
	}
	if sub.UserID != nil {
		set["user_id"] = sub.UserID
	}
	_, err := db.Collection(CollectionPushSubscriptions).UpdateOne(
		ctx,
		bson.M{"endpoint": sub.Endpoint},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"created_at": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "error upserting PushSubscription with endpoint: %s", sub.Endpoint)
}

func (db Database) PushSubscriptionFindByEndpoint(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := db.Collection(CollectionPushSubscriptions).FindOne(ctx, bson.M{"endpoint": endpoint}).Decode(&sub)
	return sub, errors.Wrapf(err, "error finding PushSubscription with endpoint: %s", endpoint)
}

func (db Database) PushSubscriptionDeactivate(ctx context.Context, endpoint string) error {
	res, err := db.Collection(CollectionPushSubscriptions).UpdateOne(
		ctx,
		bson.M{"endpoint": endpoint},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return errors.Wrapf(err, "error deactivating PushSubscription with endpoint: %s", endpoint)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "PushSubscription not found when deactivating, endpoint: %s", endpoint)
	}
	return nil
}

func (db Database) PushSubscriptionsFindActiveForUser(ctx context.Context, userID primitive.ObjectID) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	cur, err := db.Collection(CollectionPushSubscriptions).Find(
		ctx, bson.M{"user_id": userID, "is_active": true})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find PushSubscriptions for User with ID: %s", userID.Hex())
	}
	if err = cur.All(ctx, &subs); err != nil {
		return nil, errors.Wrapf(err, "error getting PushSubscriptions from cursor for User with ID: %s", userID.Hex())
	}
	return subs, nil
}
