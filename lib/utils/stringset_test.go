package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringSet(t *testing.T) {
	set := NewStringSet()

	set.Add("one")
	set.Add("two")
	set.Add("two")
	require.Len(t, set, 2)

	set.Remove("two")
	require.Len(t, set, 1)

	another := NewStringSet()
	another.Add("1")
	another.Add("2")
	another.Add("3")

	set.AddSet(another)
	require.Equal(t, []string{"1", "2", "3", "one"}, set.Slice())

	set.AddSlice([]string{"bad", "santa"})
	require.Equal(t, []string{"1", "2", "3", "bad", "one", "santa"}, set.Slice())
}

func TestStringSetDiff(t *testing.T) {
	left := NewStringSetFromSlice([]string{"a", "b", "c"})
	right := NewStringSetFromSlice([]string{"b", "c", "d"})

	require.Equal(t, []string{"a", "d"}, left.Diff(right).Slice())
}
