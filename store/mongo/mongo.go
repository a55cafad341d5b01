package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	defaultDBName   = "gosession"
)

// Store keeps principals in a single collection. The refresh digest is the
// refresh_token field, so Store is also a session store.
type Store struct {
	client *mongodriver.Client
	users  *mongodriver.Collection
}

// New connects, pings the primary, and ensures the unique indexes exist.
// The database name is taken from the URI path, defaulting to "gosession".
func New(ctx context.Context, uri string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("store.mongo.New: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store.mongo.New: connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("store.mongo.New: ping: %w", err)
	}

	s := &Store{
		client: cli,
		users:  cli.Database(databaseFromURI(uri)).Collection(usersCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports the round-trip time to the primary.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return 0, fmt.Errorf("store.mongo.Ping: %w", err)
	}
	return time.Since(start), nil
}

// ensureIndexes creates unique indexes on username and email.
func (s *Store) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	}
	if _, err := s.users.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("store.mongo.ensureIndexes: %w", err)
	}
	return nil
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
