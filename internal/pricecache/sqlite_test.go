package pricecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"mandiprice/internal/agmarknet"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore("file:" + t.TempDir() + "/marketcache.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_MissReturnsNilNil(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Read(context.Background(), "Karnataka", "Rice")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestSQLiteStore_WriteRead(t *testing.T) {
	s := newTestStore(t)

	payload := &agmarknet.Response{Records: []agmarknet.Record{
		{Market: "Bangalore APMC", ModalPrice: "2100", ArrivalDate: "2024-01-10"},
	}}
	require.NoError(t, s.Write(context.Background(), "Karnataka", "Rice", payload))

	rec, err := s.Read(context.Background(), "Karnataka", "Rice")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NotNil(t, rec.Data)
	require.Len(t, rec.Data.Records, 1)
	require.Equal(t, "2100", rec.Data.Records[0].ModalPrice)
	require.Positive(t, rec.Timestamp)
	require.NotEmpty(t, rec.LastUpdated)

	// Different key is a separate record.
	other, err := s.Read(context.Background(), "Karnataka", "Wheat")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestSQLiteStore_LastWriteWins(t *testing.T) {
	s := newTestStore(t)

	first := &agmarknet.Response{Records: []agmarknet.Record{{Market: "A", ModalPrice: "1000"}}}
	second := &agmarknet.Response{Records: []agmarknet.Record{{Market: "B", ModalPrice: "2000"}}}

	require.NoError(t, s.Write(context.Background(), "Karnataka", "Rice", first))
	require.NoError(t, s.Write(context.Background(), "Karnataka", "Rice", second))

	rec, err := s.Read(context.Background(), "Karnataka", "Rice")
	require.NoError(t, err)
	require.Len(t, rec.Data.Records, 1)
	require.Equal(t, "B", rec.Data.Records[0].Market)
}
