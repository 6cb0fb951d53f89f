package suggest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr bool
	}{
		{name: "bare", reply: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", reply: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", reply: "Sure! Here you go: {\"a\":{\"b\":2}} Hope it helps.", want: `{"a":{"b":2}}`},
		{name: "braces in strings", reply: `{"r":"use } and { freely"}`, want: `{"r":"use } and { freely"}`},
		{name: "escaped quote", reply: `{"r":"say \"}\" now"} trailing`, want: `{"r":"say \"}\" now"}`},
		{name: "none", reply: "I can't help with that.", wantErr: true},
		{name: "unterminated", reply: `{"a": [1, 2`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.reply)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("stringified array", func(t *testing.T) {
		reply := `{"suggestedUpgrades":"[{\"routeId\":\"r1\",\"upgradeType\":\"capacity\",\"cost\":1500,\"reason\":\"busy\"}]","reasoning":"  r1 is the bottleneck. "}`
		res, err := Parse(reply)
		require.NoError(t, err)
		assert.Equal(t, []Suggestion{{RouteID: "r1", UpgradeType: UpgradeCapacity, Cost: 1500, Reason: "busy"}}, res.Suggestions)
		assert.Equal(t, "r1 is the bottleneck.", res.Reasoning)
	})

	t.Run("raw array inside a fence", func(t *testing.T) {
		reply := "Here is my analysis:\n```json\n{\"suggestedUpgrades\":[{\"routeId\":\"c1-c3\",\"upgradeType\":\"new_route\",\"cost\":2500}],\"reasoning\":\"connect the west\"}\n```"
		res, err := Parse(reply)
		require.NoError(t, err)
		require.Len(t, res.Suggestions, 1)
		from, to, ok := res.Suggestions[0].Endpoints()
		assert.True(t, ok)
		assert.Equal(t, "c1", from)
		assert.Equal(t, "c3", to)
	})

	t.Run("empty list", func(t *testing.T) {
		res, err := Parse(`{"suggestedUpgrades":"[]","reasoning":"save up"}`)
		require.NoError(t, err)
		assert.NotNil(t, res.Suggestions)
		assert.Empty(t, res.Suggestions)
	})

	failures := map[string]string{
		"not json":          "no idea",
		"missing list":      `{"reasoning":"x"}`,
		"list not an array": `{"suggestedUpgrades":"{\"routeId\":\"r1\"}","reasoning":"x"}`,
		"garbage string":    `{"suggestedUpgrades":"[oops","reasoning":"x"}`,
		"unknown type":      `{"suggestedUpgrades":[{"routeId":"r1","upgradeType":"teleport","cost":1}],"reasoning":"x"}`,
		"empty route id":    `{"suggestedUpgrades":[{"routeId":"","upgradeType":"capacity","cost":1}],"reasoning":"x"}`,
		"negative cost":     `{"suggestedUpgrades":[{"routeId":"r1","upgradeType":"capacity","cost":-5}],"reasoning":"x"}`,
		"string cost":       `{"suggestedUpgrades":[{"routeId":"r1","upgradeType":"capacity","cost":"cheap"}],"reasoning":"x"}`,
	}
	for name, reply := range failures {
		t.Run(name, func(t *testing.T) {
			res, err := Parse(reply)
			assert.Error(t, err)
			assert.Nil(t, res)
		})
	}
}

func TestSuggestionHelpers(t *testing.T) {
	s := Suggestion{RouteID: "r2", UpgradeType: UpgradeCapacity, Cost: 1500}
	assert.True(t, s.Affordable(1500))
	assert.False(t, s.Affordable(1499))

	_, _, ok := s.Endpoints()
	assert.False(t, ok)

	s = Suggestion{RouteID: "new", UpgradeType: UpgradeNewRoute, From: "c2", To: "c6"}
	from, to, ok := s.Endpoints()
	assert.True(t, ok)
	assert.Equal(t, "c2", from)
	assert.Equal(t, "c6", to)
}

func TestNewRequest(t *testing.T) {
	gs := state.NewGameState(nil)

	req, err := NewRequest(gs)
	require.NoError(t, err)

	var network state.NetworkData
	require.NoError(t, json.Unmarshal([]byte(req.NetworkData), &network))
	assert.Len(t, network.Cities, 9)
	assert.Len(t, network.Routes, 11)

	var res PlayerResources
	require.NoError(t, json.Unmarshal([]byte(req.PlayerResources), &res))
	assert.Equal(t, state.StartingCurrency, res.Currency)
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, gs.Income(), res.IncomePerTick)
	assert.Equal(t, []state.Zone{state.ZoneA}, res.UnlockedZones)
}
