package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskvault/taskvault/internal/core/domain"
	"github.com/taskvault/taskvault/internal/pkg/telemetry"
)

const usersCollection = "users"

type AuthRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewAuthRepository(db *mongo.Database, timeout time.Duration) *AuthRepository {
	return &AuthRepository{coll: db.Collection(usersCollection), timeout: timeout}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	CreatedAt    time.Time          `bson:"created_at"`
}

// Create inserts the user. Uniqueness is enforced by the username index, so
// concurrent registrations of the same name cannot both succeed.
func (r *AuthRepository) Create(ctx context.Context, user *domain.User) (_ *domain.User, err error) {
	ctx, span := telemetry.StartSpan(ctx, "mongo.users.insert")
	defer func() { telemetry.End(span, err) }()
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	doc := mongoUser{
		ID:           primitive.NewObjectID(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, wrap("insert user", err)
	}
	return doc.toDomain(), nil
}

func (r *AuthRepository) FindByUsername(ctx context.Context, username string) (_ *domain.User, err error) {
	ctx, span := telemetry.StartSpan(ctx, "mongo.users.find")
	defer func() { telemetry.End(span, err) }()
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, wrap("find user", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique username index.
func (r *AuthRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	return err
}

func (d mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}
