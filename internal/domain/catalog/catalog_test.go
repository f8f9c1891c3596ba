package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot(t *testing.T) {
	snap := NewSnapshot(
		[]Subscription{
			{ID: "sub1", Name: "first", Path: "data/subscribes/a.json"},
			{ID: "sub1", Name: "second", Path: "data/subscribes/b.json"},
		},
		[]Ruleset{{ID: "rs1", Tag: "ads", Format: "source", Path: "data/rulesets/ads.json"}},
	)

	sub, ok := snap.GetSubscription("sub1")
	assert.True(t, ok)
	assert.Equal(t, "first", sub.Name)

	_, ok = snap.GetSubscription("missing")
	assert.False(t, ok)

	rs, ok := snap.GetRuleset("rs1")
	assert.True(t, ok)
	assert.Equal(t, "ads", rs.Tag)

	_, ok = snap.GetRuleset("sub1")
	assert.False(t, ok)
}

func TestSnapshot_Empty(t *testing.T) {
	snap := NewSnapshot(nil, nil)

	_, ok := snap.GetSubscription("x")
	assert.False(t, ok)
}
