package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ goSession.PrincipalStore = (*Store)(nil)

type principalDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	FullName     string    `bson:"full_name"`
	PasswordHash string    `bson:"password_hash"`
	AvatarURI    string    `bson:"avatar_uri"`
	CoverURI     string    `bson:"cover_uri"`
	RefreshToken string    `bson:"refresh_token"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func fromPrincipal(p goSession.Principal) principalDoc {
	return principalDoc{
		ID:           p.ID,
		Username:     p.Username,
		Email:        p.Email,
		FullName:     p.FullName,
		PasswordHash: p.PasswordHash,
		AvatarURI:    p.AvatarURI,
		CoverURI:     p.CoverURI,
		RefreshToken: p.RefreshToken,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (d principalDoc) principal() goSession.Principal {
	return goSession.Principal{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		FullName:     d.FullName,
		PasswordHash: d.PasswordHash,
		AvatarURI:    d.AvatarURI,
		CoverURI:     d.CoverURI,
		RefreshToken: d.RefreshToken,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// now is truncated to milliseconds, the resolution of BSON dates.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func mapError(op string, err error) error {
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, goSession.ErrPrincipalNotFound)
	}
	if mongodriver.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, goSession.ErrDuplicatePrincipal)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Store) Create(ctx context.Context, p goSession.Principal) (goSession.Principal, error) {
	const op = "store.mongo.Create"

	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	p.RefreshToken = ""

	if _, err := s.users.InsertOne(ctx, fromPrincipal(p)); err != nil {
		return goSession.Principal{}, mapError(op, err)
	}
	return p, nil
}

func (s *Store) findOne(ctx context.Context, op string, filter bson.D) (goSession.Principal, error) {
	var doc principalDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return goSession.Principal{}, mapError(op, err)
	}
	return doc.principal(), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (goSession.Principal, error) {
	return s.findOne(ctx, "store.mongo.FindByID", bson.D{{Key: "_id", Value: id}})
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (goSession.Principal, error) {
	key := strings.ToLower(identifier)
	return s.findOne(ctx, "store.mongo.FindByIdentifier", bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: key}},
		bson.D{{Key: "email", Value: key}},
	}}})
}

func (s *Store) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const op = "store.mongo.ExistsByUsernameOrEmail"

	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: username}},
		bson.D{{Key: "email", Value: email}},
	}}}
	n, err := s.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const op = "store.mongo.UpdatePasswordHash"

	res, err := s.users.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: hash},
		{Key: "updated_at", Value: now()},
	}}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, goSession.ErrPrincipalNotFound)
	}
	return nil
}

// fieldKey returns the document key backing field.
func fieldKey(field goSession.ProfileField) (string, bool) {
	switch field {
	case goSession.FieldFullName:
		return "full_name", true
	case goSession.FieldEmail:
		return "email", true
	case goSession.FieldAvatarURI:
		return "avatar_uri", true
	case goSession.FieldCoverURI:
		return "cover_uri", true
	default:
		return "", false
	}
}

func (s *Store) UpdateField(ctx context.Context, id string, field goSession.ProfileField, value string) (goSession.Principal, error) {
	const op = "store.mongo.UpdateField"

	key, ok := fieldKey(field)
	if !ok {
		return goSession.Principal{}, fmt.Errorf("%s: unknown field %s: %w", op, field, goSession.ErrInvalidField)
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: key, Value: value},
		{Key: "updated_at", Value: now()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc principalDoc
	err := s.users.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&doc)
	if err != nil {
		return goSession.Principal{}, mapError(op, err)
	}
	return doc.principal(), nil
}
