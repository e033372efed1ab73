package storage

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgdb "github.com/Skotchmaster/pharmacy_storefront/pkg/db"
)

func newTestKV(t *testing.T) *GormKV {
	t.Helper()
	gdb, err := pkgdb.Open(context.Background(), "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(gdb) })

	kv, err := NewGormKV(gdb)
	require.NoError(t, err)
	return kv
}

func TestGormKV_Schema(t *testing.T) {
	kv := newTestKV(t)
	m := kv.DB.Migrator()
	assert.True(t, m.HasTable("kv_entries"))
	assert.True(t, m.HasColumn(&Entry{}, "item_key"))
	assert.True(t, m.HasColumn(&Entry{}, "value"))
	assert.True(t, m.HasColumn(&Entry{}, "updated_at"))
}

func TestGormKV_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	_, ok, err := kv.Get(ctx, KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, KeyCart, `[]`))
	require.NoError(t, kv.Set(ctx, KeyCart, `[{"id":"SP1-Hộp"}]`))

	v, ok, err := kv.Get(ctx, KeyCart)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"SP1-Hộp"}]`, v)

	var count int64
	require.NoError(t, kv.DB.Model(&Entry{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	require.NoError(t, kv.Set(ctx, KeyUser, `{}`))
	require.NoError(t, kv.Remove(ctx, KeyCart, KeyUser))

	_, ok, err = kv.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSealed_EncryptsSelectedKeys(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	s, err := NewSealed(inner, "passphrase", KeyAccessToken)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, KeyAccessToken, "eyJhbGciOi.token"))
	require.NoError(t, s.Set(ctx, KeyCart, "[]"))

	raw, _, _ := inner.Get(ctx, KeyAccessToken)
	assert.True(t, strings.HasPrefix(raw, sealedPrefix))
	assert.NotContains(t, raw, "token")

	plainCart, _, _ := inner.Get(ctx, KeyCart)
	assert.Equal(t, "[]", plainCart)

	v, ok, err := s.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "eyJhbGciOi.token", v)
}

func TestSealed_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()

	a, err := NewSealed(inner, "one", KeyAccessToken)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, KeyAccessToken, "secret"))

	b, err := NewSealed(inner, "two", KeyAccessToken)
	require.NoError(t, err)
	_, _, err = b.Get(ctx, KeyAccessToken)
	assert.ErrorIs(t, err, ErrSealedValue)
}

func TestSealed_PassesThroughLegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	require.NoError(t, inner.Set(ctx, KeyAccessToken, "plain"))

	s, err := NewSealed(inner, "pw", KeyAccessToken)
	require.NoError(t, err)

	v, ok, err := s.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "plain", v)
}

func TestSealed_SaltIsStoredWithValue(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()

	a, err := NewSealed(inner, "pw", KeyAccessToken)
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, KeyAccessToken, "secret"))
	first, _, _ := inner.Get(ctx, KeyAccessToken)

	b, err := NewSealed(inner, "pw", KeyAccessToken)
	require.NoError(t, err)
	v, ok, err := b.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "secret", v)

	require.NoError(t, b.Set(ctx, KeyAccessToken, "secret"))
	second, _, _ := inner.Get(ctx, KeyAccessToken)

	rawA, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(first, sealedPrefix))
	require.NoError(t, err)
	rawB, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(second, sealedPrefix))
	require.NoError(t, err)
	assert.NotEqual(t, rawA[:saltSize], rawB[:saltSize])
}

func TestSealed_RejectsOldFormat(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	require.NoError(t, inner.Set(ctx, KeyAccessToken, "sealed:v1:AAAA"))

	s, err := NewSealed(inner, "pw", KeyAccessToken)
	require.NoError(t, err)
	_, ok, err := s.Get(ctx, KeyAccessToken)
	assert.ErrorIs(t, err, ErrSealedValue)
	assert.False(t, ok)
}

func TestNewSealed_EmptyPassphrase(t *testing.T) {
	_, err := NewSealed(NewMemory(), "")
	require.Error(t, err)
}
