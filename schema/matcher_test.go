package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRanges(t *testing.T) {
	t.Run("Union merge", func(t *testing.T) {
		ranges, err := ParseRanges("0-2,1-3,5,e", 10)
		require.NoError(t, err)
		require.Equal(t, [][2]int{{0, 3}, {5, 5}, {9, 9}}, ranges)
	})

	t.Run("Adjacent ranges merge", func(t *testing.T) {
		ranges, err := ParseRanges("0-2,3-4", 10)
		require.NoError(t, err)
		require.Equal(t, [][2]int{{0, 4}}, ranges)
	})

	t.Run("Non-adjacent ranges stay split", func(t *testing.T) {
		ranges, err := ParseRanges("0-2,4-5", 10)
		require.NoError(t, err)
		require.Equal(t, [][2]int{{0, 2}, {4, 5}}, ranges)
	})

	t.Run("Wildcard", func(t *testing.T) {
		ranges, err := ParseRanges("*", 4)
		require.NoError(t, err)
		require.Equal(t, [][2]int{{0, 3}}, ranges)
	})

	t.Run("Wildcard on empty array", func(t *testing.T) {
		ranges, err := ParseRanges("*", 0)
		require.NoError(t, err)
		require.Empty(t, ranges)
	})

	t.Run("Errors", func(t *testing.T) {
		for _, bad := range []struct {
			expr   string
			length int
		}{
			{"", 5},
			{"-1", 5},
			{"1-", 5},
			{"1-2-3", 5},
			{"3-1", 5},
			{"9", 5},
			{"a", 5},
			{"1e5", 5},
			{"0", 0},
		} {
			_, err := ParseRanges(bad.expr, bad.length)
			require.Error(t, err, "expr %q len %d", bad.expr, bad.length)
		}
	})
}

func TestAccess(t *testing.T) {
	def := MustStruct("Sound")
	s := NewStruct(def)

	pitchRanges, _ := s.GetReflexive("pitch_ranges")
	for i := 0; i < 3; i++ {
		pitchRanges.InsertDefault(i)
		permutations, _ := pitchRanges.At(i).GetReflexive("permutations")
		permutations.InsertDefault(0)
		require.NoError(t, permutations.At(0).Set("gain", float32(i)))
	}

	t.Run("Wildcard traversal", func(t *testing.T) {
		var gains []float32
		s.Access(".pitch_ranges[*].permutations[*].gain", func(value any, err error) bool {
			require.NoError(t, err)
			gains = append(gains, value.(float32))
			return true
		})
		require.Equal(t, []float32{0, 1, 2}, gains)
	})

	t.Run("Range subset", func(t *testing.T) {
		var gains []float32
		s.Access(".pitch_ranges[0,e].permutations[0].gain", func(value any, err error) bool {
			require.NoError(t, err)
			gains = append(gains, value.(float32))
			return true
		})
		require.Equal(t, []float32{0, 2}, gains)
	})

	t.Run("Halting", func(t *testing.T) {
		count := 0
		s.Access(".pitch_ranges[*]", func(value any, err error) bool {
			count++
			return false
		})
		require.Equal(t, 1, count)
	})

	t.Run("Length", func(t *testing.T) {
		s.Access(".pitch_ranges.length", func(value any, err error) bool {
			require.NoError(t, err)
			require.Equal(t, 3, value)
			return true
		})
	})

	t.Run("Invalid field surfaces error", func(t *testing.T) {
		var got error
		s.Access(".no_such_field", func(value any, err error) bool {
			got = err
			return true
		})
		require.Error(t, got)
	})

	t.Run("Out of bounds surfaces error", func(t *testing.T) {
		var got error
		s.Access(".pitch_ranges[7]", func(value any, err error) bool {
			got = err
			return true
		})
		require.Error(t, got)
	})
}
