package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ruhidibadli/ucuzbot/internal/model"
)

// ErrNotificationAlreadySent means this (alert, transition) pair was
// already dispatched, possibly by a concurrent evaluation.
var ErrNotificationAlreadySent = errors.New("notification already sent")

// NotificationInsert claims a trigger transition for dispatch. Callers
// insert first and only send on success, so duplicate evaluations of
// the same transition cannot double-notify.
func (db Database) NotificationInsert(ctx context.Context, n model.Notification) error {
	n.SentAt = time.Now()
	_, err := db.Collection(CollectionNotifications).InsertOne(ctx, n)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(ErrNotificationAlreadySent,
			"Alert ID: %s, triggered at: %s", n.AlertID.Hex(), n.TriggeredAt)
	}
	return errors.Wrapf(err, "error inserting Notification for Alert with ID: %s", n.AlertID.Hex())
}
