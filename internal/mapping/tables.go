package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Measurement names, one per mapping table.
const (
	MeasurementTemperatureProfile = "temperature_profile"
	MeasurementProcessParams      = "process_params"
	MeasurementHeatloadDeltaT     = "heatload_delta_t"
	MeasurementMiscellaneous      = "miscellaneous"
	MeasurementCoolingWater       = "cooling_water"
	MeasurementDeltaT             = "delta_t"
)

// Tables holds the six hand-maintained mappings from raw upstream variable
// name to field identity. Each table is bound to exactly one measurement.
//
// Keys are expected to be disjoint across tables within one deployment;
// when they are not, lookup resolves in the declaration order below
// (first table wins).
type Tables struct {
	TemperatureProfile map[string]string `yaml:"temperature_profile"`
	ProcessParams      map[string]string `yaml:"process_params"`
	HeatloadDeltaT     map[string]string `yaml:"heatload_delta_t"`
	Miscellaneous      map[string]string `yaml:"miscellaneous"`
	CoolingWater       map[string]string `yaml:"cooling_water"`
	DeltaT             map[string]string `yaml:"delta_t"`
}

// LoadTables reads the mapping tables from a YAML file.
//
// The file contains one map per measurement, keyed by measurement name:
//
//	process_params:
//	  BF2_Top_Press: top_pressure
//	  BF2_O2_Enr: o2_enrichment
//
// Parameters:
//   - path: Path to the field-mappings YAML file
//
// Returns:
//   - Tables: Loaded tables (missing sections are empty, not errors)
//   - error: If the file cannot be read or parsed
func LoadTables(path string) (Tables, error) {
	var t Tables

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("reading mappings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parsing mappings file: %w", err)
	}

	return t, nil
}
