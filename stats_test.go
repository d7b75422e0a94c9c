package crunch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bjaus/crunch"
)

func TestStats_NewStats(t *testing.T) {
	stats := crunch.NewStats(100, 95, 10, 90, 5)
	require.Equal(t, int64(100), stats.Read())
	require.Equal(t, int64(95), stats.Transformed())
	require.Equal(t, int64(10), stats.Dropped())
	require.Equal(t, int64(90), stats.Written())
	require.Equal(t, int64(5), stats.Flushed())
}

func TestStats_MarshalJSON(t *testing.T) {
	stats := crunch.NewStats(100, 95, 10, 90, 5)
	data, err := stats.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"read":100,"transformed":95,"dropped":10,"written":90,"flushed":5}`, string(data))
}

func TestStats_UnmarshalJSON(t *testing.T) {
	stats := &crunch.Stats{}
	require.NoError(t, stats.UnmarshalJSON([]byte(`{"read":7,"written":3}`)))
	require.Equal(t, int64(7), stats.Read())
	require.Equal(t, int64(3), stats.Written())
}

func TestStats_UnmarshalJSON_Error(t *testing.T) {
	stats := &crunch.Stats{}
	err := stats.UnmarshalJSON([]byte(`invalid json`))
	require.Error(t, err)
}

func TestStats_LogValue(t *testing.T) {
	stats := crunch.NewStats(1, 2, 3, 4, 5)
	attrs := stats.LogValue().Group()
	require.Len(t, attrs, 5)
	require.Equal(t, "read", attrs[0].Key)
	require.Equal(t, int64(1), attrs[0].Value.Int64())
}
