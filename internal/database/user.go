package database

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

func (db Database) UserInsert(ctx context.Context, u model.User) (id string, err error) {
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()

	r, err := db.Collection(CollectionUsers).InsertOne(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting User with email: %s", u.Email)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) UserFindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with email: %s", email)
}

func (db Database) UserFindByID(ctx context.Context, userID string) (model.User, error) {
	var u model.User
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return u, errors.Wrapf(err, "error creating ObjectID from hex: %s", userID)
	}
	err = db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with ID: %s", userID)
}

func (db Database) UserCount(ctx context.Context) (int64, error) {
	n, err := db.Collection(CollectionUsers).CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "error counting Users")
}

func (db Database) UsersFindByIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]model.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var us []model.User
	cur, err := db.Collection(CollectionUsers).Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Users, userIDs: %v", userIDs)
	}
	if err = cur.All(ctx, &us); err != nil {
		return nil, errors.Wrapf(err, "error getting Users from cursor, userIDs: %v", userIDs)
	}
	return us, nil
}

// UsersFindAdmin pages through users for the admin list, optionally
// filtered by a case-insensitive substring of email or first name.
func (db Database) UsersFindAdmin(ctx context.Context, search string, page int, pageSize int) ([]model.User, int64, error) {
	filter := bson.M{}
	if search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"email": re},
			bson.M{"first_name": re},
		}
	}

	total, err := db.Collection(CollectionUsers).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error counting Users for admin search: %s", search)
	}

	var us []model.User
	cur, err := db.Collection(CollectionUsers).Find(
		ctx,
		filter,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64((page-1)*pageSize)).
			SetLimit(int64(pageSize)),
	)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error getting cursor to find Users for admin search: %s", search)
	}
	if err = cur.All(ctx, &us); err != nil {
		return nil, 0, errors.Wrapf(err, "error getting Users from cursor for admin search: %s", search)
	}
	return us, total, nil
}
