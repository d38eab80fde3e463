package acadgraph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/acadgraph/classify"
	"github.com/brunobiangulo/acadgraph/graph"
)

// Config holds all configuration for the extraction engine. The level
// table, target sections, and prefix rules are data the matching logic
// is generic over; they are externally supplied so catalogs can evolve
// without code changes.
type Config struct {
	// ProgramID is the id of the root Program node.
	ProgramID string `json:"program_id" yaml:"program_id"`

	// ProgramName is the display name stored on the Program node.
	ProgramName string `json:"program_name" yaml:"program_name"`

	// LevelThreshold is the minimum 0-100 token-set score for a heading
	// to classify as a program level.
	LevelThreshold int `json:"level_threshold" yaml:"level_threshold"`

	// SectionThreshold is the minimum 0-100 token-set score for locating
	// a desired section among detected headings.
	SectionThreshold int `json:"section_threshold" yaml:"section_threshold"`

	// Levels is the canonical level table, in precedence order: when two
	// entries tie on score, the earlier one wins, so specific variants
	// must precede the generic labels they contain.
	Levels []classify.LevelDef `json:"levels" yaml:"levels"`

	// TargetSections are the section names fuzzy-located on program
	// listing pages.
	TargetSections []string `json:"target_sections" yaml:"target_sections"`

	// CourseFieldLabels is the field catalog fuzzy-located on course
	// detail pages.
	CourseFieldLabels []string `json:"course_field_labels" yaml:"course_field_labels"`

	// MandatoryLevels are synthesized at merge time when absent.
	MandatoryLevels []graph.LevelRef `json:"mandatory_levels" yaml:"mandatory_levels"`

	// PrefixRules infer a course's level from its code prefix when no
	// level was declared for it. Maintained by hand against the catalog;
	// treat as data to validate, not ground truth.
	PrefixRules []graph.PrefixRule `json:"prefix_rules" yaml:"prefix_rules"`

	// TranslateConcurrency caps parallel document translations in a
	// batch (default 8). Results are reassembled in submission order
	// before merge regardless.
	TranslateConcurrency int `json:"translate_concurrency" yaml:"translate_concurrency"`

	// CachePath is the SQLite course-cache database path. Empty disables
	// the cache.
	CachePath string `json:"cache_path" yaml:"cache_path"`
}

// DefaultConfig returns a Config populated with the IIT Madras BS
// catalog tables.
func DefaultConfig() Config {
	return Config{
		ProgramID:        "program:IITM_BS",
		ProgramName:      "IIT Madras BS Degree Program",
		LevelThreshold:   70,
		SectionThreshold: 65,
		Levels: []classify.LevelDef{
			{ID: "level:foundation", Title: "Foundation", Match: []string{"Foundation Level", "Foundation"}},
			{ID: "level:diploma_programming", Title: "Diploma - Programming", Match: []string{"Diploma in Programming", "Programming Diploma"}},
			{ID: "level:diploma_ds", Title: "Diploma - Data Science", Match: []string{"Diploma in Data Science", "Data Science Diploma", "Diploma DS", "DS Diploma"}},
			{ID: "level:diploma", Title: "Diploma", Match: []string{"Diploma Level", "Diploma"}},
			{ID: "level:bsc", Title: "BSc Degree", Match: []string{"BSc Degree Level", "BSc Level", "BSc Degree"}},
			{ID: "level:bs", Title: "BS Degree", Match: []string{"BS Degree Level", "BS Level", "BS Degree"}},
			{ID: "level:degree", Title: "Degree", Match: []string{"Degree Level", "Degree"}},
		},
		TargetSections: []string{
			"Program Structure",
			"Term Structure",
			"Course Structure",
			"Assessments",
			"Exam Cities",
			"Fee Structure",
			"Foundation Level",
			"Diploma Level",
			"Degree Level",
			"Rules",
			"Policies",
			"Attendance",
		},
		CourseFieldLabels: []string{
			"Title",
			"Course Title",
			"Course Code",
			"Credits",
			"Course Credits",
			"Course Type",
			"Duration",
			"Evaluation Method",
			"Assessment Method",
			"Prerequisites",
			"Pre-requisites",
			"Corequisites",
			"Co-requisites",
			"Description",
			"Syllabus",
			"Learning Outcomes",
			"Topics",
			"Assessment",
			"Grading Policy",
			"Instructors",
			"Level",
			"Term",
			"Course Duration",
			"Course Evaluation",
			"Course Assessment",
			"Course Structure",
			"Course Structure & Assessments",
			"Structure",
			"Structure & Assessments",
		},
		MandatoryLevels: []graph.LevelRef{
			{ID: "level:foundation", Title: "Foundation"},
		},
		PrefixRules: []graph.PrefixRule{
			{Prefixes: []string{"BSMA100", "BSCS100", "BSHS100"}, Level: "Foundation"},
			{Prefixes: []string{"BSMA200", "BSCS200", "BSHS200", "BSMS200", "BSSE200", "BSDA200"}, Level: "Diploma"},
			{Prefixes: []string{"BSMA300", "BSCS300", "BSHS300", "BSMS300", "BSSE300", "BSDA300", "BSGN300"}, Level: "Degree"},
			{Prefixes: []string{"BSMA400", "BSCS400", "BSHS400", "BSMS400", "BSSE400", "BSDA400", "BSBT400"}, Level: "Degree"},
			{Prefixes: []string{"BSMA500", "BSCS500", "BSHS500", "BSMS500", "BSSE500", "BSDA500", "BSEE500"}, Level: "Degree"},
			{Prefixes: []string{"BSMA600", "BSCS600", "BSHS600", "BSMS600", "BSSE600", "BSDA600"}, Level: "Degree"},
			{Prefixes: []string{"BSMA690", "BSCS690", "BSHS690", "BSMS690", "BSSE690", "BSDA690"}, Level: "Degree"},
		},
		TranslateConcurrency: 8,
	}
}

// Validate reports configuration errors that must fail fast, before any
// translation begins.
func (c Config) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("%w: missing canonical level table", ErrInvalidConfig)
	}
	if c.LevelThreshold < 0 || c.LevelThreshold > 100 {
		return fmt.Errorf("%w: level threshold %d out of range", ErrInvalidConfig, c.LevelThreshold)
	}
	if c.SectionThreshold < 0 || c.SectionThreshold > 100 {
		return fmt.Errorf("%w: section threshold %d out of range", ErrInvalidConfig, c.SectionThreshold)
	}
	if c.ProgramID == "" {
		return fmt.Errorf("%w: missing program id", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads a YAML (or JSON, which YAML subsumes) config file on
// top of the defaults, so partial files only override what they name.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}
