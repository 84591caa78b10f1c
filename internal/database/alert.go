package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

func (db Database) AlertInsert(ctx context.Context, a model.Alert) (id string, err error) {
	a.IsActive = true
	a.CreatedAt = time.Now()

	r, err := db.Collection(CollectionAlerts).InsertOne(ctx, a)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Alert with query: %s", a.SearchQuery)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) AlertFindByID(ctx context.Context, alertID string) (model.Alert, error) {
	var a model.Alert
	objID, err := primitive.ObjectIDFromHex(alertID)
	if err != nil {
		return a, errors.Wrapf(err, "error creating ObjectID from hex: %s", alertID)
	}
	err = db.Collection(CollectionAlerts).FindOne(ctx, bson.M{"_id": objID}).Decode(&a)
	return a, errors.Wrapf(err, "error finding Alert with ID: %s", alertID)
}

func (db Database) AlertsFindByUserID(ctx context.Context, userID primitive.ObjectID) ([]model.Alert, error) {
	var as []model.Alert
	cur, err := db.Collection(CollectionAlerts).Find(
		ctx,
		bson.M{"user_id": userID, "is_active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Alerts for User with ID: %s", userID.Hex())
	}
	if err = cur.All(ctx, &as); err != nil {
		return nil, errors.Wrapf(err, "error getting Alerts from cursor for User with ID: %s", userID.Hex())
	}
	return as, nil
}

func (db Database) AlertsFindByPushEndpoint(ctx context.Context, endpoint string) ([]model.Alert, error) {
	var as []model.Alert
	cur, err := db.Collection(CollectionAlerts).Find(
		ctx,
		bson.M{"push_endpoint": endpoint, "is_active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Alerts for push endpoint: %s", endpoint)
	}
	if err = cur.All(ctx, &as); err != nil {
		return nil, errors.Wrapf(err, "error getting Alerts from cursor for push endpoint: %s", endpoint)
	}
	return as, nil
}

func (db Database) AlertCountActiveForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := db.Collection(CollectionAlerts).CountDocuments(
		ctx, bson.M{"user_id": userID, "is_active": true})
	return n, errors.Wrapf(err, "error counting active Alerts for User with ID: %s", userID.Hex())
}

func (db Database) AlertCountActiveForPushEndpoint(ctx context.Context, endpoint string) (int64, error) {
	n, err := db.Collection(CollectionAlerts).CountDocuments(
		ctx, bson.M{"push_endpoint": endpoint, "is_active": true})
	return n, errors.Wrapf(err, "error counting active Alerts for push endpoint: %s", endpoint)
}

// AlertsFindDue returns active alerts whose last check is older than
// cutoff, or which were never checked.
func (db Database) AlertsFindDue(ctx context.Context, cutoff time.Time) ([]model.Alert, error) {
	var as []model.Alert
	cur, err := db.Collection(CollectionAlerts).Find(
		ctx,
		bson.M{
			"is_active": true,
			"$or": bson.A{
				bson.M{"last_checked_at": nil},
				bson.M{"last_checked_at": bson.M{"$lt": cutoff}},
			},
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find due Alerts")
	}
	if err = cur.All(ctx, &as); err != nil {
		return nil, errors.Wrap(err, "error getting due Alerts from cursor")
	}
	return as, nil
}

// AlertUpdateEvaluation persists the mutable evaluation fields after a
// check. Always called with a fresh last_checked_at, so a zero
// modified count means the alert vanished under us.
func (db Database) AlertUpdateEvaluation(ctx context.Context, a model.Alert) error {
	res, err := db.Collection(CollectionAlerts).UpdateOne(
		ctx,
		bson.M{"_id": a.ID},
		bson.M{"$set": bson.M{
			"is_triggered":       a.IsTriggered,
			"triggered_at":       a.TriggeredAt,
			"last_checked_at":    a.LastCheckedAt,
			"lowest_price_found": a.LowestPriceFound,
			"lowest_price_store": a.LowestPriceStore,
			"lowest_price_url":   a.LowestPriceURL,
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating evaluation of Alert with ID: %s", a.ID.Hex())
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "Alert not modified when updating evaluation, ID: %s", a.ID.Hex())
	}
	return nil
}

func (db Database) AlertDeactivate(ctx context.Context, alertID primitive.ObjectID) error {
	res, err := db.Collection(CollectionAlerts).UpdateOne(
		ctx,
		bson.M{"_id": alertID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	if err != nil {
		return errors.Wrapf(err, "error deactivating Alert with ID: %s", alertID.Hex())
	}
	if res.ModifiedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "Alert not modified when deactivating, ID: %s", alertID.Hex())
	}
	return nil
}

type AlertAdminQuery struct {
	StatusFilter string
	StoreSlug    string
	Page         int
	PageSize     int
}

func (db Database) AlertsFindAdmin(ctx context.Context, q AlertAdminQuery) ([]model.Alert, int64, error) {
	filter := bson.M{}
	switch q.StatusFilter {
	case "active":
		filter["is_active"] = true
		filter["is_triggered"] = false
	case "triggered":
		filter["is_triggered"] = true
	case "inactive":
		filter["is_active"] = false
	}
	if q.StoreSlug != "" {
		filter["store_slugs"] = q.StoreSlug
	}

	total, err := db.Collection(CollectionAlerts).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error counting Alerts for admin query: %+v", q)
	}

	var as []model.Alert
	cur, err := db.Collection(CollectionAlerts).Find(
		ctx,
		filter,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64((q.Page-1)*q.PageSize)).
			SetLimit(int64(q.PageSize)),
	)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error getting cursor to find Alerts for admin query: %+v", q)
	}
	if err = cur.All(ctx, &as); err != nil {
		return nil, 0, errors.Wrapf(err, "error getting Alerts from cursor for admin query: %+v", q)
	}
	return as, total, nil
}

type AlertStats struct {
	TotalAlerts        int64
	ActiveAlerts       int64
	TriggeredAlerts    int64
	InactiveAlerts     int64
	AlertsByStore      map[string]int64
	RecentTriggered24h int64
	RecentTriggered7d  int64
}

func (db Database) AlertStats(ctx context.Context) (AlertStats, error) {
	var s AlertStats
	coll := db.Collection(CollectionAlerts)

	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&s.TotalAlerts, bson.M{}},
		{&s.ActiveAlerts, bson.M{"is_active": true, "is_triggered": false}},
		{&s.TriggeredAlerts, bson.M{"is_triggered": true}},
		{&s.InactiveAlerts, bson.M{"is_active": false}},
		{&s.RecentTriggered24h, bson.M{
			"is_triggered": true,
			"triggered_at": bson.M{"$gte": time.Now().Add(-24 * time.Hour)},
		}},
		{&s.RecentTriggered7d, bson.M{
			"is_triggered": true,
			"triggered_at": bson.M{"$gte": time.Now().Add(-7 * 24 * time.Hour)},
		}},
	}
	for _, c := range counts {
		n, err := coll.CountDocuments(ctx, c.filter)
		if err != nil {
			return s, errors.Wrapf(err, "error counting Alerts with filter: %v", c.filter)
		}
		*c.dst = n
	}

	cur, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$unwind", Value: "$store_slugs"}},
		{{Key: "$group", Value: bson.M{"_id": "$store_slugs", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return s, errors.Wrap(err, "error aggregating Alert counts by store")
	}
	var rows []struct {
		Store string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return s, errors.Wrap(err, "error getting Alert counts by store from cursor")
	}
	s.AlertsByStore = make(map[string]int64, len(rows))
	for _, r := range rows {
		s.AlertsByStore[r.Store] = r.Count
	}
	return s, nil
}

type AlertCounts struct {
	Total     int64 `bson:"total"`
	Active    int64 `bson:"active"`
	Triggered int64 `bson:"triggered"`
}

// AlertCountsForUsers bulk-counts alerts per user for the admin user
// list, one aggregation instead of three counts per row.
func (db Database) AlertCountsForUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]AlertCounts, error) {
	if len(userIDs) == 0 {
		return map[primitive.ObjectID]AlertCounts{}, nil
	}
	cur, err := db.Collection(CollectionAlerts).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": bson.M{"$in": userIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$user_id",
			"total":     bson.M{"$sum": 1},
			"active":    bson.M{"$sum": bson.M{"$cond": bson.A{"$is_active", 1, 0}}},
			"triggered": bson.M{"$sum": bson.M{"$cond": bson.A{"$is_triggered", 1, 0}}},
		}}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "error aggregating Alert counts per User")
	}
	var rows []struct {
		UserID      primitive.ObjectID `bson:"_id"`
		AlertCounts `bson:",inline"`
	}
	if err = cur.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "error getting Alert counts per User from cursor")
	}
	m := make(map[primitive.ObjectID]AlertCounts, len(rows))
	for _, r := range rows {
		m[r.UserID] = r.AlertCounts
	}
	return m, nil
}
