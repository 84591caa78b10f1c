package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Name                        = "ucuzbot_db"
	CollectionAlerts            = "alerts"
	CollectionUsers             = "users"
	CollectionPushSubscriptions = "push_subscriptions"
	CollectionNotifications     = "notifications"
	CollectionActivities        = "activities"
	CollectionPriceRecords      = "price_records"
)

type Database struct {
	*mongo.Database
}

var ErrNoDocumentsModified = errors.New("no documents modified")

func ConnectDB(ctx context.Context, dbURI string) (*mongo.Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURI).SetRegistry(mongoRegistry()))
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionUsers).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionAlerts).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{{Key: "user_id", Value: 1}},
			},
			{
				Keys:    bson.D{{Key: "push_endpoint", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
			{
				Keys: bson.D{
					{Key: "is_active", Value: 1},
					{Key: "last_checked_at", Value: 1},
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionPushSubscriptions).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	)
	if err != nil {
		return nil, err
	}

	// The unique index is what makes trigger notifications exactly-once:
	// a second dispatch for the same (alert, transition) pair fails the
	// insert and is skipped.
	_, err = c.Database(Name).Collection(CollectionNotifications).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "alert_id", Value: 1},
				{Key: "triggered_at", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionActivities).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionPriceRecords).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{{Key: "alert_id", Value: 1}},
			},
			{
				Keys: bson.D{{Key: "scraped_at", Value: 1}},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}
