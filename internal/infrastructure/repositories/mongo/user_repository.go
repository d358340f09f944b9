package mongo

import (
	"context"
	"errors"
	"fmt"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	"streamie/pkg/tracing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var usernameIndexKeys = bson.D{{Key: "username", Value: 1}}

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Hash     string             `bson:"hash"`
	Salt     string             `bson:"salt"`
	Role     string             `bson:"role"`
	Fullname string             `bson:"fullname"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:       domain.UserID(d.ID.Hex()),
		Username: d.Username,
		Hash:     d.Hash,
		Salt:     d.Salt,
		Role:     d.Role,
		Fullname: d.Fullname,
	}
}

type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository expects EnsureIndexes to have run; uniqueness of usernames
// rests on the index.
func NewUserRepository(db *mongo.Database) ports.UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "insert", usersCollection)
	defer func() { tracing.End(span, err) }()

	doc := userDocument{
		ID:       primitive.NewObjectID(),
		Username: user.Username,
		Hash:     user.Hash,
		Salt:     user.Salt,
		Role:     user.Role,
		Fullname: user.Fullname,
	}
	if _, err = r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = domain.UserID(doc.ID.Hex())
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (_ *domain.User, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "find", usersCollection)
	defer func() { tracing.End(span, err) }()

	oid, err := parseObjectID(string(id))
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (_ *domain.User, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "find", usersCollection)
	defer func() { tracing.End(span, err) }()

	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) List(ctx context.Context) (_ []*domain.User, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "find", usersCollection)
	defer func() { tracing.End(span, err) }()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id domain.UserID) (err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "delete", usersCollection)
	defer func() { tracing.End(span, err) }()

	oid, err := parseObjectID(string(id))
	if err != nil {
		return err
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
