package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/session"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	_ session.Store  = (*Store)(nil)
	_ session.Pinger = (*Store)(nil)
)

func (s *Store) Get(ctx context.Context, principalID string) (string, bool, error) {
	const op = "store.mongo.Get"

	var doc struct {
		RefreshToken string `bson:"refresh_token"`
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "refresh_token", Value: 1}})
	err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: principalID}}, opts).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w: %w", op, session.ErrUnavailable, err)
	}
	if doc.RefreshToken == "" {
		return "", false, nil
	}
	return doc.RefreshToken, true, nil
}

// Set overwrites the refresh value. Writes for unknown principals match nothing.
func (s *Store) Set(ctx context.Context, principalID, value string) error {
	const op = "store.mongo.Set"

	update := bson.D{{Key: "$set", Value: bson.D{{Key: "refresh_token", Value: value}}}}
	if _, err := s.users.UpdateByID(ctx, principalID, update); err != nil {
		return fmt.Errorf("%s: %w: %w", op, session.ErrUnavailable, err)
	}
	return nil
}

// CompareAndSwap matches on both _id and the expected value, so the single
// document update is the comparison.
func (s *Store) CompareAndSwap(ctx context.Context, principalID, expected, next string) (bool, error) {
	const op = "store.mongo.CompareAndSwap"

	filter := bson.D{
		{Key: "_id", Value: principalID},
		{Key: "refresh_token", Value: expected},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "refresh_token", Value: next}}}}

	res, err := s.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, session.ErrUnavailable, err)
	}
	return res.MatchedCount == 1, nil
}
