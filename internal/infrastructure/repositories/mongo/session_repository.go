package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"streamie/internal/core/domain"
	"streamie/internal/core/ports"
	"streamie/pkg/tracing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var sessionNameIndexKeys = bson.D{{Key: "name", Value: 1}}

// oldestFirst makes name lookups and deletes agree on which duplicate is
// the first match.
var oldestFirst = bson.D{{Key: "_id", Value: 1}}

func findOldestOptions() *options.FindOneOptions {
	return options.FindOne().SetSort(oldestFirst)
}

func deleteOldestOptions() *options.FindOneAndDeleteOptions {
	return options.FindOneAndDelete().SetSort(oldestFirst).SetProjection(bson.M{"_id": 1})
}

type streamDocument struct {
	Link       string `bson:"link"`
	Channel    string `bson:"channel"`
	StreamType string `bson:"stream_type"`
}

type sessionDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Start       time.Time          `bson:"start"`
	End         time.Time          `bson:"end"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Stream      streamDocument     `bson:"stream"`
}

func (d *sessionDocument) toDomain() *domain.Session {
	return &domain.Session{
		ID:          domain.SessionID(d.ID.Hex()),
		Start:       d.Start.UTC(),
		End:         d.End.UTC(),
		Name:        d.Name,
		Description: d.Description,
		Stream: domain.SessionStream{
			Link:     d.Stream.Link,
			Channel:  d.Stream.Channel,
			Platform: domain.ParsePlatform(d.Stream.StreamType),
		},
	}
}

type SessionRepository struct {
	collection *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) ports.SessionRepository {
	return &SessionRepository{collection: db.Collection(sessionsCollection)}
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) (err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "insert", sessionsCollection)
	defer func() { tracing.End(span, err) }()

	doc := sessionDocument{
		ID:          primitive.NewObjectID(),
		Start:       session.Start.UTC(),
		End:         session.End.UTC(),
		Name:        session.Name,
		Description: session.Description,
		Stream: streamDocument{
			Link:       session.Stream.Link,
			Channel:    session.Stream.Channel,
			StreamType: string(session.Stream.Platform),
		},
	}
	if _, err = r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	session.ID = domain.SessionID(doc.ID.Hex())
	return nil
}

func (r *SessionRepository) findOne(ctx context.Context, filter bson.M) (*domain.Session, error) {
	var doc sessionDocument
	err := r.collection.FindOne(ctx, filter, findOldestOptions()).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id domain.SessionID) (_ *domain.Session, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "find", sessionsCollection)
	defer func() { tracing.End(span, err) }()

	oid, err := parseObjectID(string(id))
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByName returns the oldest session with that name.
func (r *SessionRepository) GetByName(ctx context.Context, name string) (_ *domain.Session, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "find", sessionsCollection)
	defer func() { tracing.End(span, err) }()

	return r.findOne(ctx, bson.M{"name": name})
}

func (r *SessionRepository) List(ctx context.Context) (_ []*domain.Session, err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "find", sessionsCollection)
	defer func() { tracing.End(span, err) }()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []sessionDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	sessions := make([]*domain.Session, 0, len(docs))
	for i := range docs {
		sessions = append(sessions, docs[i].toDomain())
	}
	return sessions, nil
}

// patchSet builds the $set document for the non-empty fields of p.
func patchSet(p domain.SessionPatch) bson.M {
	set := bson.M{}
	if p.Start != nil {
		set["start"] = p.Start.UTC()
	}
	if p.End != nil {
		set["end"] = p.End.UTC()
	}
	if p.Name != "" {
		set["name"] = p.Name
	}
	if p.Description != "" {
		set["description"] = p.Description
	}
	if p.Link != "" {
		set["stream.link"] = p.Link
	}
	if p.Channel != "" {
		set["stream.channel"] = p.Channel
	}
	if p.Platform != "" {
		set["stream.stream_type"] = string(p.Platform)
	}
	return set
}

func (r *SessionRepository) UpdateFields(ctx context.Context, id domain.SessionID, patch domain.SessionPatch) (err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "update", sessionsCollection)
	defer func() { tracing.End(span, err) }()

	oid, err := parseObjectID(string(id))
	if err != nil {
		return err
	}
	set := patchSet(patch)
	if len(set) == 0 {
		return domain.ErrEmptyPatch
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) deleteOne(ctx context.Context, filter bson.M) error {
	res, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteByName(ctx context.Context, name string) (err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "delete", sessionsCollection)
	defer func() { tracing.End(span, err) }()

	err = r.collection.FindOneAndDelete(ctx, bson.M{"name": name}, deleteOldestOptions()).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id domain.SessionID) (err error) {
	ctx, span := tracing.TraceStoreOperation(ctx, "delete", sessionsCollection)
	defer func() { tracing.End(span, err) }()

	oid, err := parseObjectID(string(id))
	if err != nil {
		return err
	}
	return r.deleteOne(ctx, bson.M{"_id": oid})
}
