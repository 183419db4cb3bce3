package session

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *metadata.SQLiteStore {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return metadata.NewSQLiteStore(db)
}

func TestCredentialStore_Plain(t *testing.T) {
	repo := newStore(t)
	cs := NewCredentialStore(repo, "")
	ctx := context.Background()

	tok, err := cs.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, cs.Save(ctx, "tok", "sek"))

	raw, err := repo.Get(ctx, common.AuthTokenKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("tok"), raw)

	sec, err := cs.SigningSecret(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sek", sec)

	require.NoError(t, cs.Save(ctx, "tok2", ""))
	sec, err = cs.SigningSecret(ctx)
	require.NoError(t, err)
	assert.Empty(t, sec)

	require.NoError(t, cs.Clear(ctx))
	tok, err = cs.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestCredentialStore_SealedAtRest(t *testing.T) {
	repo := newStore(t)
	cs := NewCredentialStore(repo, "correct horse")
	ctx := context.Background()

	require.NoError(t, cs.Save(ctx, "tok", "sek"))

	raw, err := repo.Get(ctx, common.AuthTokenKey)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("tok"), raw)

	salt, err := repo.Get(ctx, common.CredentialSaltKey)
	require.NoError(t, err)
	assert.Len(t, salt, saltSize)

	tok, err := cs.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	// a fresh store with the same passphrase reuses the salt
	again := NewCredentialStore(repo, "correct horse")
	tok, err = again.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	wrong := NewCredentialStore(repo, "battery staple")
	_, err = wrong.Token(ctx)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
