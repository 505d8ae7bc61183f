package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitWithTags(id string, tags map[string]string) *Commit {
	return &Commit{ID: id, Properties: map[string]interface{}{"tags": tags}}
}

func TestParseTagFilters(t *testing.T) {
	filters, err := ParseTagFilters([]string{"a", "b=c", "d=e=f"})
	require.NoError(t, err)
	require.Len(t, filters, 3)
	assert.Equal(t, TagFilter{Key: "a"}, filters[0])
	assert.Equal(t, TagFilter{Key: "b", Value: "c", HasValue: true}, filters[1])
	assert.Equal(t, TagFilter{Key: "d", Value: "e=f", HasValue: true}, filters[2])

	_, err = ParseTagFilters([]string{"=v"})
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestMatchTagsExact(t *testing.T) {
	c1 := commitWithTags("hash1", map[string]string{"a": "b"})
	c2 := commitWithTags("hash2", map[string]string{"c": "d"})
	filters, err := ParseTagFilters([]string{"a=b"})
	require.NoError(t, err)
	assert.True(t, MatchTags(c1, filters))
	assert.False(t, MatchTags(c2, filters))
}

func TestMatchTagsExists(t *testing.T) {
	c1 := commitWithTags("hash1", map[string]string{"a": "b"})
	c2 := commitWithTags("hash2", map[string]string{"c": "d"})
	filters, err := ParseTagFilters([]string{"a"})
	require.NoError(t, err)
	assert.True(t, MatchTags(c1, filters))
	assert.False(t, MatchTags(c2, filters))
}

func TestMatchTagsCompound(t *testing.T) {
	c1 := commitWithTags("hash1", map[string]string{"a": "b", "c": "d"})
	c2 := commitWithTags("hash2", map[string]string{"c": "d"})
	filters, err := ParseTagFilters([]string{"a=b", "c=d"})
	require.NoError(t, err)
	assert.True(t, MatchTags(c1, filters))
	assert.False(t, MatchTags(c2, filters))
}

func TestMatchTagsDecodedJSON(t *testing.T) {
	// property maps decoded from JSON carry map[string]interface{}
	c := &Commit{ID: "hash", Properties: map[string]interface{}{
		"tags": map[string]interface{}{"a": "b"},
	}}
	filters, err := ParseTagFilters([]string{"a=b"})
	require.NoError(t, err)
	assert.True(t, MatchTags(c, filters))
}

func TestMatchTagsNoFilters(t *testing.T) {
	c := &Commit{ID: "hash"}
	assert.True(t, MatchTags(c, nil))
}
