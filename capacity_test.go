package crunch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bjaus/crunch"
)

func TestSizeCapacity(t *testing.T) {
	tests := []struct {
		name    string
		maxSize int
		pending []crunch.Record
		full    bool
	}{
		{name: "below", maxSize: 3, pending: []crunch.Record{1, 2}},
		{name: "exact", maxSize: 3, pending: []crunch.Record{1, 2, 3}, full: true},
		{name: "above", maxSize: 3, pending: []crunch.Record{1, 2, 3, 4}, full: true},
		{name: "zero max size", maxSize: 0, pending: []crunch.Record{1}, full: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.full, crunch.SizeCapacity(tt.maxSize)(tt.pending))
		})
	}
}

func TestWeightCapacity(t *testing.T) {
	weigh := func(r crunch.Record) int { return r.(int) }

	tests := []struct {
		name      string
		maxWeight int
		pending   []crunch.Record
		full      bool
	}{
		{name: "empty", maxWeight: 10, pending: nil},
		{name: "below", maxWeight: 10, pending: []crunch.Record{3, 4}},
		{name: "reaches max", maxWeight: 10, pending: []crunch.Record{3, 4, 3}, full: true},
		{name: "single oversized item", maxWeight: 10, pending: []crunch.Record{25}, full: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.full, crunch.WeightCapacity(weigh, tt.maxWeight)(tt.pending))
		})
	}
}

func TestDistinctKeyCapacity(t *testing.T) {
	type row struct{ Tenant string }
	key := func(r crunch.Record) string { return r.(row).Tenant }
	full := crunch.DistinctKeyCapacity(key, 2)

	require.False(t, full([]crunch.Record{row{"a"}, row{"a"}, row{"a"}}))
	require.True(t, full([]crunch.Record{row{"a"}, row{"b"}}))
}

func TestAnyCapacity(t *testing.T) {
	full := crunch.AnyCapacity(
		crunch.SizeCapacity(3),
		crunch.WeightCapacity(func(r crunch.Record) int { return len(r.(string)) }, 10),
	)

	require.False(t, full([]crunch.Record{"a", "b"}))
	require.True(t, full([]crunch.Record{"a", "b", "c"}))
	require.True(t, full([]crunch.Record{"0123456789"}))
	require.False(t, crunch.AnyCapacity()([]crunch.Record{"a"}))
}
