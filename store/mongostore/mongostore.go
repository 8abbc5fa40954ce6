// Package mongostore adapts a MongoDB collection to store.Store.
//
// Records are identified by the hex form of their ObjectID. Documents are read as bson.D so that
// field order survives the round trip, then normalized to plain Go values for JSON encoding.
//
// Top-level field names containing a dot or starting with "$" are rejected with a
// *store.ValidationError: $set would read them as paths or operators.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saddemm/Projet-Badel/store"
)

const idField = "_id"

type Store struct {
	coll *mongo.Collection
}

func New(db *mongo.Database, collection string) *Store {
	return &Store{coll: db.Collection(collection)}
}

// Connect connects to uri and checks the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func (s *Store) collection() string {
	return s.coll.Name()
}

func (s *Store) FindAll(ctx context.Context) ([]*store.Record, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, store.Fail("find", s.collection(), err)
	}
	defer cur.Close(ctx)

	docs := make([]bson.D, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, store.Fail("find", s.collection(), err)
	}

	out := make([]*store.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, toRecord(d))
	}
	return out, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*store.Record, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, store.Fail("findById", s.collection(), fmt.Errorf("malformed id %q: %w", id, err))
	}

	var d bson.D
	err = s.coll.FindOne(ctx, bson.D{{Key: idField, Value: oid}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, store.Fail("findById", s.collection(), err)
	}
	return toRecord(d), true, nil
}

func (s *Store) Create(ctx context.Context, fields *store.Document) (*store.Record, error) {
	fields = store.StripIdentity(fields.Clone())
	if err := checkFieldNames(s.collection(), fields); err != nil {
		return nil, err
	}
	oid := primitive.NewObjectID()

	d := append(bson.D{{Key: idField, Value: oid}}, toBSON(fields)...)
	if _, err := s.coll.InsertOne(ctx, d); err != nil {
		return nil, store.Fail("create", s.collection(), err)
	}
	return &store.Record{ID: oid.Hex(), Fields: fields}, nil
}

func (s *Store) MergeUpdate(ctx context.Context, existing *store.Record, fields *store.Document) (*store.Record, error) {
	oid, err := primitive.ObjectIDFromHex(existing.ID)
	if err != nil {
		return nil, store.Fail("update", s.collection(), err)
	}

	fields = store.StripIdentity(fields.Clone())
	if err := checkFieldNames(s.collection(), fields); err != nil {
		return nil, err
	}
	if fields.Len() == 0 {
		// $set refuses an empty document
		return existing.Clone(), nil
	}

	var d bson.D
	err = s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: idField, Value: oid}},
		bson.D{{Key: "$set", Value: toBSON(fields)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.Fail("update", s.collection(), store.ErrNotFound)
	}
	if err != nil {
		return nil, store.Fail("update", s.collection(), err)
	}
	return toRecord(d), nil
}

func (s *Store) Delete(ctx context.Context, existing *store.Record) error {
	oid, err := primitive.ObjectIDFromHex(existing.ID)
	if err != nil {
		return store.Fail("delete", s.collection(), err)
	}

	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: idField, Value: oid}})
	if err != nil {
		return store.Fail("delete", s.collection(), err)
	}
	if res.DeletedCount == 0 {
		return store.Fail("delete", s.collection(), store.ErrNotFound)
	}
	return nil
}

// Drop removes the whole collection.
func (s *Store) Drop(ctx context.Context) error {
	return s.coll.Drop(ctx)
}
