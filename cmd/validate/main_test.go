package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

func TestValidate_DefaultCatalog(t *testing.T) {
	data, err := json.Marshal(state.DefaultCatalog())
	require.NoError(t, err)

	v := &CatalogValidator{}
	assert.NoError(t, v.validate("default.json", data))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *state.Catalog)
		raw     string
		wantMsg string
	}{
		{
			name:    "bad city id",
			mutate:  func(c *state.Catalog) { c.Cities[0].ID = "City1" },
			wantMsg: "city ID 'City1'",
		},
		{
			name:    "off map",
			mutate:  func(c *state.Catalog) { c.Cities[1].X = 140 },
			wantMsg: "outside the 0-100 map",
		},
		{
			name:    "bad route id",
			mutate:  func(c *state.Catalog) { c.Routes[0].ID = "route-one" },
			wantMsg: "route ID 'route-one'",
		},
		{
			name:    "duplicate pair",
			mutate:  func(c *state.Catalog) { c.Routes[1].From, c.Routes[1].To = "c2", "c1" },
			wantMsg: "route already connects these cities",
		},
		{
			name:    "empty zone",
			mutate:  func(c *state.Catalog) { c.Cities = c.Cities[:6]; c.Routes = c.Routes[:7] },
			wantMsg: "zone C has no cities",
		},
		{
			name:    "unknown field",
			raw:     `{"cities":[],"routes":[],"extra":true}`,
			wantMsg: "strict JSON",
		},
		{
			name:    "not json",
			raw:     `{"cities":`,
			wantMsg: "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(tt.raw)
			if tt.mutate != nil {
				c := state.DefaultCatalog()
				tt.mutate(c)
				var err error
				data, err = json.Marshal(c)
				require.NoError(t, err)
			}

			v := &CatalogValidator{}
			err := v.validate("catalog.json", data)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()

	v := &CatalogValidator{}
	err := v.validateFile(filepath.Join(dir, "catalog.yaml"))
	assert.ErrorContains(t, err, ".json extension")

	path := filepath.Join(dir, "catalog.json")
	data, err := json.Marshal(state.DefaultCatalog())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	assert.NoError(t, v.validateFile(path))
}
