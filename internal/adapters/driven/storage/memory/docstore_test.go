package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

func TestDocumentStore_GetMissing(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.GetDocument(context.Background(), "Data:Missing.map")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDocumentStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	require.NoError(t, store.PutDocument(ctx, "Data:A.map", "{}", "create"))
	require.NoError(t, store.PutDocument(ctx, "Data:A.map", `{"zoom":9}`, "update"))

	content, err := store.GetDocument(ctx, "Data:A.map")
	require.NoError(t, err)
	assert.Equal(t, `{"zoom":9}`, content)

	writes := store.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, "create", writes[0].Summary)
	assert.Equal(t, "update", writes[1].Summary)
}

func TestDocumentStore_SeedIsNotAWrite(t *testing.T) {
	store := NewDocumentStore()
	store.Seed("Data:B.map", "{}")

	content, err := store.GetDocument(context.Background(), "Data:B.map")
	require.NoError(t, err)
	assert.Equal(t, "{}", content)
	assert.Empty(t, store.Writes())
}
