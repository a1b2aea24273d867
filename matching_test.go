package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSelection(t *testing.T, role Role, ids ...string) *Selection {
	t.Helper()

	sel, err := newSelection(role, ids, nil)
	require.NoError(t, err)
	return sel
}

func TestComputeMatches(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want []string
	}{
		{
			name: "disjoint",
			a:    []string{"bolt-kfc", "bolt-dominos", "bolt-manami"},
			b:    []string{"wolt-hesburger", "wolt-ganbei", "wolt-holydonut"},
			want: []string{},
		},
		{
			name: "single",
			a:    []string{"bolt-kfc", "bolt-dominos", "bolt-manami"},
			b:    []string{"bolt-kfc", "wolt-ganbei", "wolt-holydonut"},
			want: []string{"bolt-kfc"},
		},
		{
			name: "multiple sorted",
			a:    []string{"bolt-manami", "bolt-kfc", "bolt-dominos"},
			b:    []string{"bolt-kfc", "bolt-manami", "wolt-holydonut"},
			want: []string{"bolt-kfc", "bolt-manami"},
		},
		{
			name: "identical",
			a:    []string{"bolt-kfc", "bolt-dominos", "bolt-manami"},
			b:    []string{"bolt-dominos", "bolt-manami", "bolt-kfc"},
			want: []string{"bolt-dominos", "bolt-kfc", "bolt-manami"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustSelection(t, RolePerson1, tt.a...)
			b := mustSelection(t, RolePerson2, tt.b...)

			got, err := computeMatches(a, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Intersection is symmetric in its arguments.
			flipped, err := computeMatches(b, a)
			require.NoError(t, err)
			assert.Equal(t, got, flipped)
		})
	}
}

func TestComputeMatches_RequiresBothComplete(t *testing.T) {
	complete := mustSelection(t, RolePerson1, "bolt-kfc", "bolt-dominos", "bolt-manami")

	for _, incomplete := range []*Selection{
		nil,
		{Role: RolePerson2, Restaurants: []string{"bolt-kfc", "bolt-dominos", "bolt-manami"}},
		{Role: RolePerson2, Restaurants: []string{"bolt-kfc"}, Submitted: true},
	} {
		_, err := computeMatches(complete, incomplete)
		assert.ErrorIs(t, err, ErrIncompleteSession)

		_, err = computeMatches(incomplete, complete)
		assert.ErrorIs(t, err, ErrIncompleteSession)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, matchNone, classify(nil))
	assert.Equal(t, matchNone, classify([]string{}))
	assert.Equal(t, matchSingle, classify([]string{"a"}))
	assert.Equal(t, matchMultiple, classify([]string{"a", "b"}))
	assert.Equal(t, matchMultiple, classify([]string{"a", "b", "c"}))
}

func TestMethodValid(t *testing.T) {
	for _, m := range []Method{MethodMatch, MethodRandom, MethodWheel, MethodChoice} {
		assert.True(t, m.valid())
	}
	assert.False(t, Method("").valid())
	assert.False(t, Method("coinflip").valid())
}
