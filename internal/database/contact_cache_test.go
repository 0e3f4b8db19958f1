package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medibook/backend/internal/models"
)

func TestContactCacheDisabled(t *testing.T) {
	ctx := context.Background()

	for name, cache := range map[string]*ContactCache{
		"nilCache":  nil,
		"nilClient": NewContactCache(nil),
	} {
		t.Run(name, func(t *testing.T) {
			cache.Set(ctx, &models.RecipientContact{UserID: 1, Phone: "01012345678"})
			require.Nil(t, cache.Get(ctx, 1))
			cache.Invalidate(ctx, 1)
		})
	}
}

func TestContactKey(t *testing.T) {
	require.Equal(t, "medibook:contact:42", contactKey(42))
}
