package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

func (db Database) ActivityInsert(ctx context.Context, a model.Activity) error {
	a.CreatedAt = time.Now()
	_, err := db.Collection(CollectionActivities).InsertOne(ctx, a)
	return errors.Wrapf(err, "error inserting Activity with action: %s", a.Action)
}

func (db Database) ActivitiesFindAdmin(ctx context.Context, actionFilter string, page int, pageSize int) ([]model.Activity, int64, error) {
	filter := bson.M{}
	if actionFilter != "" && actionFilter != "all" {
		filter["action"] = actionFilter
	}

	total, err := db.Collection(CollectionActivities).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error counting Activities with action filter: %s", actionFilter)
	}

	var as []model.Activity
	cur, err := db.Collection(CollectionActivities).Find(
		ctx,
		filter,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64((page-1)*pageSize)).
			SetLimit(int64(pageSize)),
	)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error getting cursor to find Activities with action filter: %s", actionFilter)
	}
	if err = cur.All(ctx, &as); err != nil {
		return nil, 0, errors.Wrapf(err, "error getting Activities from cursor with action filter: %s", actionFilter)
	}
	return as, total, nil
}
