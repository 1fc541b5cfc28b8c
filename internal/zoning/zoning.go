// Package zoning models the structured regime-urbanístico data: per-zone
// construction parameters, risk areas and the fixed set of aggregate queries
// that may be run over them.
package zoning

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Row is one set of construction parameters for a neighborhood and zone code.
// Nil fields are unknown and must never be rendered as numbers.
type Row struct {
	Neighborhood     string   `yaml:"neighborhood" json:"neighborhood"`
	ZoneCode         string   `yaml:"zone" json:"zoneCode"`
	HeightMax        *float64 `yaml:"height_max" json:"heightMax,omitempty"`
	FARBasic         *float64 `yaml:"far_basic" json:"farBasic,omitempty"`
	FARMax           *float64 `yaml:"far_max" json:"farMax,omitempty"`
	OccupancyRate    *float64 `yaml:"occupancy_rate" json:"occupancyRate,omitempty"`
	PermeabilityRate *float64 `yaml:"permeability_rate" json:"permeabilityRate,omitempty"`
	Setback          *float64 `yaml:"setback" json:"setback,omitempty"`
}

// Has reports whether the row carries a value for the named parameter.
func (r Row) Has(param string) bool {
	switch param {
	case ParamHeight:
		return r.HeightMax != nil
	case ParamFAR:
		return r.FARBasic != nil || r.FARMax != nil
	case ParamOccupancy:
		return r.OccupancyRate != nil
	case ParamPermeability:
		return r.PermeabilityRate != nil
	case ParamSetback:
		return r.Setback != nil
	}
	return false
}

// Construction parameter names, matching the lexicon.
const (
	ParamHeight       = "height"
	ParamFAR          = "far"
	ParamOccupancy    = "occupancy"
	ParamPermeability = "permeability"
	ParamSetback      = "setback"
)

// RiskArea is one mapped risk zone within a neighborhood.
type RiskArea struct {
	Neighborhood string `yaml:"neighborhood" json:"neighborhood"`
	Category     string `yaml:"category" json:"category"`
	Level        string `yaml:"level" json:"level"`
}

var zoneRe = regexp.MustCompile(`(?i)^\s*zot\s*-?\s*(\d{1,2})(?:\s*\.\s*(\d{1,2}))?(?:\s*-?\s*([a-e]))?\s*$`)

// ErrInvalidZone is returned by CanonicalZone for unrecognized codes.
var ErrInvalidZone = errors.New("invalid zone code")

// CanonicalZone normalizes a zone code: "zot 8.3 b" -> "ZOT 08.3-B", "ZOT07" -> "ZOT 07".
func CanonicalZone(code string) (string, error) {
	m := zoneRe.FindStringSubmatch(code)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidZone, code)
	}
	n, _ := strconv.Atoi(m[1])
	out := fmt.Sprintf("ZOT %02d", n)
	if m[2] != "" {
		out += "." + m[2]
	}
	if m[3] != "" {
		out += "-" + strings.ToUpper(m[3])
	}
	return out, nil
}

// Shape is one of the supported aggregate query forms.
type Shape string

const (
	ShapeCountByCategory       Shape = "count_by_category"
	ShapeAverageByNeighborhood Shape = "average_by_neighborhood"
	ShapeListByZone            Shape = "list_by_zone"
)

// Category selects what count_by_category groups.
type Category string

const (
	CategoryZone Category = "zone"
	CategoryRisk Category = "risk"
)

// AggregateQuery is a structured, reviewed aggregate request. It is built from
// recognized entities, never from free text.
type AggregateQuery struct {
	Shape        Shape
	Category     Category
	Parameter    string
	Neighborhood string
	ZoneCode     string
}

// ErrUnsupportedAggregate is returned for aggregate queries outside the supported shapes.
var ErrUnsupportedAggregate = errors.New("unsupported aggregate query")

// Validate checks that q is one of the supported shapes with the filters it needs.
func (q AggregateQuery) Validate() error {
	switch q.Shape {
	case ShapeCountByCategory:
		if q.Category != CategoryZone && q.Category != CategoryRisk {
			return fmt.Errorf("%w: category %q", ErrUnsupportedAggregate, q.Category)
		}
	case ShapeAverageByNeighborhood:
		switch q.Parameter {
		case ParamHeight, ParamFAR, ParamOccupancy, ParamPermeability, ParamSetback:
		default:
			return fmt.Errorf("%w: parameter %q", ErrUnsupportedAggregate, q.Parameter)
		}
	case ShapeListByZone:
		if q.ZoneCode == "" {
			return fmt.Errorf("%w: list_by_zone needs a zone code", ErrUnsupportedAggregate)
		}
	default:
		return fmt.Errorf("%w: shape %q", ErrUnsupportedAggregate, q.Shape)
	}
	return nil
}

// AggregateRow is one group of an aggregate result.
type AggregateRow struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// AggregateResult is the answer to an AggregateQuery.
type AggregateResult struct {
	Query AggregateQuery `json:"-"`
	Rows  []AggregateRow `json:"rows"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
