package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Parameter keys understood by the composite scorer.
const (
	ParamWeightAcademic   = "weight_academic"
	ParamWeightExperience = "weight_experience"
	ParamGPAScale         = "gpa_scale"
	ParamTestScale        = "test_scale"
	ParamInternshipCap    = "internship_cap"
	ParamYearsCap         = "years_cap"
)

// Input names the composite scorer extracts from the item document.
const (
	InputGPA         = "gpa"
	InputTestScore   = "test_score"
	InputInternships = "internships"
	InputYears       = "years_experience"
)

// Config is one immutable, published scoring configuration. Jobs pin the
// version at enqueue time; workers look the pinned version up at execution
// time, never the currently active one.
type Config struct {
	Version string `json:"version"`
	// Parameters holds the numeric knobs of the scoring formula, keyed by
	// the Param* constants.
	Parameters map[string]float64 `json:"parameters"`
	// Extract maps input names to JMESPath expressions evaluated against the
	// item document.
	Extract map[string]string `json:"extract"`
}

// Param returns the named parameter, falling back to def when absent.
func (c Config) Param(key string, def float64) float64 {
	if v, ok := c.Parameters[key]; ok {
		return v
	}
	return def
}

// Validate checks the config is internally consistent: version present,
// composite weights summing to 1, and every extract expression compilable.
func (c Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("config version is required")
	}
	wa := c.Param(ParamWeightAcademic, 0)
	we := c.Param(ParamWeightExperience, 0)
	if wa < 0 || we < 0 {
		return fmt.Errorf("config %s: weights must be non-negative", c.Version)
	}
	if math.Abs(wa+we-1.0) > 0.001 {
		return fmt.Errorf("config %s: weights must sum to 1.0, got %.3f", c.Version, wa+we)
	}
	for name, expr := range c.Extract {
		if _, err := jmespath.Compile(expr); err != nil {
			return fmt.Errorf("config %s: extract %q: %w", c.Version, name, err)
		}
	}
	return nil
}

// defaultExtract maps scorer inputs to their document locations. Calibration
// files may override individual expressions per version.
func defaultExtract() map[string]string {
	return map[string]string{
		InputGPA:         "academic.gpa",
		InputTestScore:   "academic.test_score",
		InputInternships: "experience.internships",
		InputYears:       "experience.years",
	}
}

// BuiltinConfigs returns the scoring configurations compiled into the binary.
// v1 is the original academic-heavy blend; v2 rebalances toward experience.
func BuiltinConfigs() []Config {
	return []Config{
		{
			Version: "v1",
			Parameters: map[string]float64{
				ParamWeightAcademic:   0.6,
				ParamWeightExperience: 0.4,
				ParamGPAScale:         4.0,
				ParamTestScale:        100,
				ParamInternshipCap:    5,
				ParamYearsCap:         10,
			},
			Extract: defaultExtract(),
		},
		{
			Version: "v2",
			Parameters: map[string]float64{
				ParamWeightAcademic:   0.5,
				ParamWeightExperience: 0.5,
				ParamGPAScale:         4.0,
				ParamTestScale:        100,
				ParamInternshipCap:    6,
				ParamYearsCap:         12,
			},
			Extract: defaultExtract(),
		},
	}
}

// calibrationFile is the JSON structure of an on-disk calibration file. Each
// entry either adds a new version or overrides a built-in one wholesale.
type calibrationFile struct {
	Versions []Config `json:"versions"`
}

// Resolver holds the published config versions and which one is active for
// new enqueues. It is built once at process start and never mutated.
type Resolver struct {
	versions map[string]Config
	active   string
}

// NewResolver builds a Resolver from the built-in configs plus any versions
// loaded from the calibration file at path (empty path skips the file).
// A calibration file that cannot be read or parsed degrades gracefully to the
// built-ins with a warning. The active version must exist after loading.
func NewResolver(active, path string, logger *slog.Logger) (*Resolver, error) {
	versions := make(map[string]Config)
	for _, cfg := range BuiltinConfigs() {
		versions[cfg.Version] = cfg
	}

	for _, cfg := range loadCalibration(path, logger) {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("calibration: %w", err)
		}
		if len(cfg.Extract) == 0 {
			cfg.Extract = defaultExtract()
		}
		versions[cfg.Version] = cfg
	}

	if _, ok := versions[active]; !ok {
		return nil, fmt.Errorf("active config version %q is not published", active)
	}

	return &Resolver{versions: versions, active: active}, nil
}

// loadCalibration reads extra config versions from a JSON file. Missing or
// malformed files return nil so the built-ins remain authoritative.
func loadCalibration(path string, logger *slog.Logger) []Config {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read calibration file, using built-in configs",
			"path", path, "error", err)
		return nil
	}
	var file calibrationFile
	if err := json.Unmarshal(data, &file); err != nil {
		logger.Warn("failed to parse calibration file, using built-in configs",
			"path", path, "error", err)
		return nil
	}
	return file.Versions
}

// Active returns the configuration new jobs are pinned to.
func (r *Resolver) Active() Config {
	return r.versions[r.active]
}

// Get returns the configuration for a pinned version.
func (r *Resolver) Get(version string) (Config, bool) {
	cfg, ok := r.versions[version]
	return cfg, ok
}

// Versions lists the published version identifiers.
func (r *Resolver) Versions() []string {
	out := make([]string, 0, len(r.versions))
	for v := range r.versions {
		out = append(out, v)
	}
	return out
}
