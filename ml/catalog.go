package ml

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// baselineSlot marks the location dropped during training; it has no
// indicator column.
const baselineSlot = -1

// LocationCatalog is the ordered, immutable set of known locations.
type LocationCatalog struct {
	names    []string
	slots    map[string]int
	canon    map[string]string
	baseline string
}

// NormalizeLocation trims, NFC-normalizes and case-folds a location name.
// Two names match when their normalized forms are equal.
func NormalizeLocation(location string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(location)))
}

// newLocationCatalog builds the catalog from the indicator columns of the
// columns artifact. firstSlot is the vector index of the first indicator.
func newLocationCatalog(indicators []string, baseline string, firstSlot int) (*LocationCatalog, error) {
	c := &LocationCatalog{
		names: make([]string, 0, len(indicators)+1),
		slots: make(map[string]int, len(indicators)+1),
		canon: make(map[string]string, len(indicators)+1),
	}

	baseline = strings.TrimSpace(baseline)
	if baseline != "" {
		c.baseline = baseline
		c.add(baseline, baselineSlot)
	}

	for i, name := range indicators {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("location column %d is empty", firstSlot+i)
		}
		key := NormalizeLocation(trimmed)
		if slot, exists := c.slots[key]; exists {
			if slot == baselineSlot {
				return nil, fmt.Errorf("baseline location %q also has an indicator column", baseline)
			}
			return nil, fmt.Errorf("duplicate location column %q", trimmed)
		}
		c.add(trimmed, firstSlot+i)
	}

	if len(c.names) == 0 {
		return nil, errors.New("location catalog is empty")
	}
	return c, nil
}

func (c *LocationCatalog) add(name string, slot int) {
	key := NormalizeLocation(name)
	c.names = append(c.names, name)
	c.slots[key] = slot
	c.canon[key] = name
}

// Names returns the catalog in listing order. The slice is a copy.
func (c *LocationCatalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *LocationCatalog) Len() int {
	return len(c.names)
}

func (c *LocationCatalog) Baseline() string {
	return c.baseline
}

// Lookup resolves a client-supplied location to its catalog spelling.
// slot is the vector index of its indicator, or -1 for the baseline.
func (c *LocationCatalog) Lookup(location string) (name string, slot int, ok bool) {
	key := NormalizeLocation(location)
	slot, ok = c.slots[key]
	if !ok {
		return "", baselineSlot, false
	}
	return c.canon[key], slot, true
}
