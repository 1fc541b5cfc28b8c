package zoning

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset is the zoning table as loaded from a YAML file.
type Dataset struct {
	Zones     []Row      `yaml:"zones"`
	RiskAreas []RiskArea `yaml:"risk_areas"`
}

// ParseDataset decodes a zoning dataset and canonicalizes its zone codes.
// Duplicate neighborhood/zone pairs and negative parameters are rejected.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode zoning dataset: %w", err)
	}

	seen := make(map[string]bool, len(ds.Zones))
	for i := range ds.Zones {
		row := &ds.Zones[i]
		row.Neighborhood = strings.TrimSpace(row.Neighborhood)
		if row.Neighborhood == "" {
			return nil, fmt.Errorf("zone row %d: neighborhood is required", i+1)
		}
		code, err := CanonicalZone(row.ZoneCode)
		if err != nil {
			return nil, fmt.Errorf("zone row %d: %w", i+1, err)
		}
		row.ZoneCode = code

		key := strings.ToLower(row.Neighborhood) + "|" + code
		if seen[key] {
			return nil, fmt.Errorf("zone row %d: duplicate %s in %s", i+1, code, row.Neighborhood)
		}
		seen[key] = true

		for _, v := range []*float64{row.HeightMax, row.FARBasic, row.FARMax, row.OccupancyRate, row.PermeabilityRate, row.Setback} {
			if v != nil && *v < 0 {
				return nil, fmt.Errorf("zone row %d: negative parameter value %v", i+1, *v)
			}
		}
	}

	for i, a := range ds.RiskAreas {
		if strings.TrimSpace(a.Neighborhood) == "" || strings.TrimSpace(a.Category) == "" {
			return nil, fmt.Errorf("risk area %d: neighborhood and category are required", i+1)
		}
	}
	return &ds, nil
}
