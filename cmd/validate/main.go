package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/route-tycoon/pkg/state"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <catalog.json> [catalog.json...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &CatalogValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type CatalogValidator struct {
	errors []string
}

func (v *CatalogValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("catalog file must have .json extension: %s", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return v.validate(filename, data)
}

func (v *CatalogValidator) validate(filename string, data []byte) error {
	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var c state.Catalog
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&c); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	if err := c.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			v.addError(line)
		}
	}
	v.validateCatalog(&c)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

// validateCatalog adds the checks that only matter for hand-written files:
// id formats and map bounds.
func (v *CatalogValidator) validateCatalog(c *state.Catalog) {
	for _, city := range c.Cities {
		v.validateIDFormat("city ID", city.ID, validCityIDRegex)
		if strings.TrimSpace(city.Name) == "" {
			v.addError(fmt.Sprintf("city '%s' has no name", city.ID))
		}
		if city.X < 0 || city.X > 100 || city.Y < 0 || city.Y > 100 {
			v.addError(fmt.Sprintf("city '%s' position (%g, %g) is outside the 0-100 map", city.ID, city.X, city.Y))
		}
	}

	zones := make(map[state.Zone]bool)
	for _, city := range c.Cities {
		zones[city.Zone] = true
	}
	for _, z := range state.Zones {
		if !zones[z] {
			v.addError(fmt.Sprintf("zone %s has no cities", z))
		}
	}

	for _, r := range c.Routes {
		v.validateIDFormat("route ID", r.ID, validRouteIDRegex)
	}
}

func (v *CatalogValidator) validateIDFormat(fieldName, id string, re *regexp.Regexp) {
	if id == "" {
		return
	}
	if !re.MatchString(id) {
		v.addError(fmt.Sprintf("%s '%s' must match %s", fieldName, id, re.String()))
	}
}

func (v *CatalogValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validCityIDRegex = regexp.MustCompile(`^c[0-9]+$`)
	// Built routes take the next free rN id, so catalog routes use the same form.
	validRouteIDRegex = regexp.MustCompile(`^r[0-9]+$`)
)
