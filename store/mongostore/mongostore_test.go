package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/saddemm/Projet-Badel/store"
)

// newStore connects to the server at BADEL_TEST_MONGO_URI and returns a store on a fresh collection.
func newStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("BADEL_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("BADEL_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	require.NoError(t, err)

	s := New(client.Database("projetbadel-test"), "wishlists_"+primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		_ = s.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return s
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	rec, err := s.Create(ctx, store.NewDocument(
		store.Field{Key: "title", Value: "Book"},
		store.Field{Key: "_id", Value: "client-id"},
		store.Field{Key: "price", Value: 10.0}))
	require.NoError(t, err)
	assert.Len(t, rec.ID, 24)

	found, ok, err := s.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"title", "price"}, found.Fields.Keys())

	updated, err := s.MergeUpdate(ctx, found, store.NewDocument(
		store.Field{Key: "title", Value: "Book v2"},
		store.Field{Key: "author", Value: "Ana"}))
	require.NoError(t, err)
	assert.Equal(t, rec.ID, updated.ID)
	assert.Equal(t, map[string]any{"title": "Book v2", "price": 10.0, "author": "Ana"}, updated.Fields.Map())

	require.NoError(t, s.Delete(ctx, updated))

	_, ok, err = s.FindByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Delete(ctx, updated), store.ErrNotFound)
}

func TestMalformedID(t *testing.T) {
	s := newStore(t)

	_, _, err := s.FindByID(context.Background(), "w1")
	var se *store.StoreError
	assert.True(t, errors.As(err, &se))
}
