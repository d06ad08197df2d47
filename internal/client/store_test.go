package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenhouse-agent/gha/pkg/api"
)

func TestStoreDropsStaleResponses(t *testing.T) {
	s := NewStore()

	older := s.Begin()
	newer := s.Begin()
	require.Less(t, older, newer)

	assert.True(t, s.ReplaceSwitches(newer, []api.SwitchState{{Name: "new"}}))
	assert.False(t, s.ReplaceSwitches(older, []api.SwitchState{{Name: "old"}}))
	assert.Equal(t, "new", s.Switches()[0].Name)

	assert.True(t, s.ReplaceMetrics(older, "a_f 1"))
	assert.True(t, s.ReplaceMetrics(newer, "a_f 2"))
	assert.False(t, s.ReplaceMetrics(older, "a_f 3"))
	assert.Equal(t, "a_f 2", s.Metrics())
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore()
	in := []api.SwitchState{{Name: "fan"}}
	s.ReplaceSwitches(s.Begin(), in)

	in[0].Name = "mutated"
	out := s.Switches()
	assert.Equal(t, "fan", out[0].Name)

	out[0].Name = "also mutated"
	assert.Equal(t, "fan", s.Switches()[0].Name)
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Switches())
	assert.Empty(t, s.Metrics())
	assert.True(t, s.SwitchesUpdated().IsZero())
	assert.True(t, s.MetricsUpdated().IsZero())

	s.ReplaceSwitches(s.Begin(), []api.SwitchState{})
	assert.NotNil(t, s.Switches(), "an empty list from the agent is still a list")
}
