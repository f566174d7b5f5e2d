package compute

import "fmt"

// Default values applied when fields are absent from a config file.
const (
	DefaultWarningColumn = "has_unreachable_hole_warning"
	DefaultErrorColumn   = "has_unreachable_hole_error"
	DefaultHolesColumn   = "holes"
	DefaultPoorRatio     = 10.0
	DefaultCriticalRatio = 40.0
	DefaultWorkers       = 1
)

// Thresholds are the depth-to-diameter ratio limits.
type Thresholds struct {
	// Poor is the lower limit; a ratio strictly above it raises a warning.
	Poor float64 `yaml:"poor_ratio" json:"poor_ratio"`

	// Critical is the upper limit; a ratio strictly above it raises an error.
	Critical float64 `yaml:"critical_ratio" json:"critical_ratio"`
}

// Config controls how a table is annotated. It maps 1:1 to the `rules:`
// section of the annotator and server config files.
type Config struct {
	// WarningColumn is the output field for the warning flag.
	WarningColumn string `yaml:"warning_column" json:"warning_column"`

	// ErrorColumn is the output field for the error flag.
	ErrorColumn string `yaml:"error_column" json:"error_column"`

	// HolesColumn is the input field holding the serialized hole list.
	HolesColumn string `yaml:"holes_column" json:"holes_column"`

	Thresholds `yaml:",inline"`

	// Workers is the number of goroutines used to annotate rows.
	// 1 means sequential.
	Workers int `yaml:"workers" json:"workers"`
}

// DefaultThresholds returns the standard poor/critical limits.
func DefaultThresholds() Thresholds {
	return Thresholds{Poor: DefaultPoorRatio, Critical: DefaultCriticalRatio}
}

// DefaultConfig returns a Config populated with the default column names,
// thresholds and a single worker.
func DefaultConfig() Config {
	return Config{
		WarningColumn: DefaultWarningColumn,
		ErrorColumn:   DefaultErrorColumn,
		HolesColumn:   DefaultHolesColumn,
		Thresholds:    DefaultThresholds(),
		Workers:       DefaultWorkers,
	}
}

// Validate checks structural constraints on c.
func (c Config) Validate() error {
	if c.WarningColumn == "" {
		return fmt.Errorf("warning_column is required")
	}
	if c.ErrorColumn == "" {
		return fmt.Errorf("error_column is required")
	}
	if c.HolesColumn == "" {
		return fmt.Errorf("holes_column is required")
	}
	if c.WarningColumn == c.ErrorColumn {
		return fmt.Errorf("warning_column and error_column must differ (both %q)", c.WarningColumn)
	}
	if c.HolesColumn == c.WarningColumn || c.HolesColumn == c.ErrorColumn {
		return fmt.Errorf("holes_column %q must not be a flag column", c.HolesColumn)
	}
	if c.Poor < 0 {
		return fmt.Errorf("poor_ratio must not be negative")
	}
	if c.Critical < c.Poor {
		return fmt.Errorf("critical_ratio %g must not be below poor_ratio %g", c.Critical, c.Poor)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}
