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

func (db Database) PriceRecordsInsert(ctx context.Context, recs []model.PriceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	docs := make([]any, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, rec)
	}
	_, err := db.Collection(CollectionPriceRecords).InsertMany(ctx, docs)
	return errors.Wrapf(err, "error inserting %d PriceRecord(s) for Alert with ID: %s",
		len(recs), recs[0].AlertID.Hex())
}

func (db Database) PriceRecordsFindByAlertID(
	ctx context.Context, alertID primitive.ObjectID, limit int,
) ([]model.PriceRecord, error) {
	var recs []model.PriceRecord
	cur, err := db.Collection(CollectionPriceRecords).Find(
		ctx,
		bson.M{"alert_id": alertID},
		options.Find().
			SetSort(bson.D{{Key: "scraped_at", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find PriceRecords for Alert with ID: %s", alertID.Hex())
	}
	if err = cur.All(ctx, &recs); err != nil {
		return nil, errors.Wrapf(err, "error getting PriceRecords from cursor for Alert with ID: %s", alertID.Hex())
	}
	return recs, nil
}

// PriceRecordsDeleteBefore prunes history rows older than cutoff and
// returns how many were removed.
func (db Database) PriceRecordsDeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.Collection(CollectionPriceRecords).DeleteMany(
		ctx, bson.M{"scraped_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, errors.Wrapf(err, "error deleting PriceRecords older than: %s", cutoff.Format(time.RFC3339))
	}
	return res.DeletedCount, nil
}
