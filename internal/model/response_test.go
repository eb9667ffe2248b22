package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponseSet(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates identical values", func(t *testing.T) {
		t.Parallel()
		rs := NewResponseSet([]string{"Better pay", "Remote work", "Better pay", "Remote work", "Better pay"})
		assert.Equal(t, []string{"Better pay", "Remote work"}, rs.Members)
		assert.Equal(t, []int{0, 2, 4}, rs.Rows["Better pay"])
		assert.Equal(t, []int{1, 3}, rs.Rows["Remote work"])
	})

	t.Run("drops empty and whitespace values", func(t *testing.T) {
		t.Parallel()
		rs := NewResponseSet([]string{"", "  ", "\t", "real answer", ""})
		assert.Equal(t, 1, rs.Len())
		assert.Equal(t, []int{3}, rs.Rows["real answer"])
	})

	t.Run("trims before comparing", func(t *testing.T) {
		t.Parallel()
		rs := NewResponseSet([]string{"  yes  ", "yes"})
		require.Equal(t, 1, rs.Len())
		assert.Equal(t, []int{0, 1}, rs.Rows["yes"])
	})

	t.Run("case sensitive", func(t *testing.T) {
		t.Parallel()
		rs := NewResponseSet([]string{"Yes", "yes"})
		assert.Equal(t, 2, rs.Len())
	})

	t.Run("member order follows first occurrence", func(t *testing.T) {
		t.Parallel()
		rs := NewResponseSet([]string{"c", "a", "b", "a", "c"})
		assert.Equal(t, []string{"c", "a", "b"}, rs.Members)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		rs := NewResponseSet(nil)
		assert.Equal(t, 0, rs.Len())
	})
}

func TestNormalizeResponse(t *testing.T) {
	t.Parallel()

	// NFKC folds compatibility forms: full-width characters and ligatures
	// collapse to their plain equivalents.
	assert.Equal(t, "ABC", NormalizeResponse("ＡＢＣ"))
	assert.Equal(t, "office", NormalizeResponse("oﬃce"))
	assert.Equal(t, "plain", NormalizeResponse("  plain\n"))
}

func TestResultCache(t *testing.T) {
	t.Parallel()

	rs := NewResponseSet([]string{"a", "b", "c"})

	t.Run("incomplete", func(t *testing.T) {
		t.Parallel()
		cache := ResultCache{"a": "Code 1", "b": "Code 2"}
		assert.False(t, cache.Complete(rs))
	})

	t.Run("complete with sentinels", func(t *testing.T) {
		t.Parallel()
		cache := ResultCache{"a": "Code 1", "b": APIError, "c": NoCodeApplied}
		assert.True(t, cache.Complete(rs))
		assert.Equal(t, []string{"b"}, cache.Failures())
	})

	t.Run("no failures", func(t *testing.T) {
		t.Parallel()
		cache := ResultCache{"a": "Code 1"}
		assert.Empty(t, cache.Failures())
	})
}

func TestNormalizeLegacySeparators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"comma joined", "Pay,Culture", "Pay | Culture"},
		{"comma with spaces", "Pay ,  Culture", "Pay | Culture"},
		{"already piped", "Pay | Culture", "Pay | Culture"},
		{"single label", "Pay", "Pay"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeLegacySeparators(tt.in))
		})
	}
}

func TestSplitJoinLabels(t *testing.T) {
	t.Parallel()

	t.Run("split joined value", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"Pay", "Culture"}, SplitLabels("Pay | Culture"))
	})

	t.Run("split tolerates uneven whitespace", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"Pay", "Culture", "Growth"}, SplitLabels("Pay|Culture  |  Growth"))
	})

	t.Run("split single label", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{APIError}, SplitLabels(APIError))
	})

	t.Run("split empty", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, SplitLabels(""))
	})

	t.Run("join labels", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Pay | Culture", JoinLabels([]string{"Pay", "Culture"}))
	})

	t.Run("join empty list yields sentinel", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, NoCodeApplied, JoinLabels(nil))
	})
}
