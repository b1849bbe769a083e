package harnessup

import (
	"fmt"
	"strconv"
	"strings"
)

// GridPoint is one combination of retrieval limits tried by the optimizer
type GridPoint struct {
	// Facts is the FACTS_LIMIT value
	Facts int `yaml:"facts" json:"facts"`

	// Entities is the ENTITIES_LIMIT value
	Entities int `yaml:"entities" json:"entities"`

	// Episodes is the EPISODES_LIMIT value
	Episodes int `yaml:"episodes" json:"episodes"`
}

// String returns the point in the facts:entities:episodes form accepted by ParseGridPoint
func (p GridPoint) String() string {
	return fmt.Sprintf("%d:%d:%d", p.Facts, p.Entities, p.Episodes)
}

// Validate rejects negative limits
func (p GridPoint) Validate() error {
	if p.Facts < 0 || p.Entities < 0 || p.Episodes < 0 {
		return fmt.Errorf("limits cannot be negative: %s", p)
	}
	return nil
}

// defaultGrid focuses on the hard question category
var defaultGrid = []GridPoint{
	{Facts: 25, Entities: 15, Episodes: 5}, // balanced
	{Facts: 30, Entities: 12, Episodes: 5},
	{Facts: 35, Entities: 10, Episodes: 5},
	{Facts: 40, Entities: 8, Episodes: 3},
	{Facts: 50, Entities: 5, Episodes: 0}, // facts only
	{Facts: 30, Entities: 20, Episodes: 0},
	{Facts: 25, Entities: 25, Episodes: 0},
	{Facts: 45, Entities: 5, Episodes: 5},
}

// DefaultGrid returns a copy of the built-in parameter grid
func DefaultGrid() []GridPoint {
	grid := make([]GridPoint, len(defaultGrid))
	copy(grid, defaultGrid)
	return grid
}

// ParseGridPoint parses "facts:entities:episodes"
func ParseGridPoint(spec string) (GridPoint, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	if len(parts) != 3 {
		return GridPoint{}, fmt.Errorf("invalid grid point %q (expected 'facts:entities:episodes')", spec)
	}

	values := make([]int, 3)
	for i, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return GridPoint{}, fmt.Errorf("invalid grid point %q: %w", spec, err)
		}
		values[i] = value
	}

	point := GridPoint{Facts: values[0], Entities: values[1], Episodes: values[2]}
	if err := point.Validate(); err != nil {
		return GridPoint{}, err
	}
	return point, nil
}

// ParseGrid parses a list of grid point specifications, dropping duplicates
// while keeping the first occurrence order.
func ParseGrid(specs []string) ([]GridPoint, error) {
	seen := make(map[GridPoint]bool)
	var grid []GridPoint
	for _, spec := range specs {
		point, err := ParseGridPoint(spec)
		if err != nil {
			return nil, err
		}
		if seen[point] {
			continue
		}
		seen[point] = true
		grid = append(grid, point)
	}
	return grid, nil
}
