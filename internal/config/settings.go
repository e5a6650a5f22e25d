package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the configuration of an evolution run, read from YAML.
type Settings struct {
	// Runner names the fitness provider (e.g. "square", "parity").
	Runner string `yaml:"runner"`

	Population  int   `yaml:"population"`
	Generations int   `yaml:"generations"`
	Seed        int64 `yaml:"seed"`

	// Workers is the evaluator pool size. Zero uses runtime.NumCPU().
	Workers int `yaml:"workers,omitempty"`

	// BuildDepth is the recursion allowance of one gene build.
	BuildDepth int `yaml:"build_depth"`

	// Iterations and Timeout override the runner's own values when set.
	Iterations int           `yaml:"iterations,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`

	Survival SurvivalRatios        `yaml:"survival"`
	Genes    GeneProbabilities     `yaml:"genes"`
	Types    TypeProbabilities     `yaml:"types"`
	Mutation MutationProbabilities `yaml:"mutation"`
	Output   Output                `yaml:"output"`
}

// SurvivalRatios split each new generation by origin.
type SurvivalRatios struct {
	Survivors        float64 `yaml:"survivors"`
	MutatedSurvivors float64 `yaml:"mutated_survivors"`
	Mutants          float64 `yaml:"mutants"`
	CrossoverOnly    float64 `yaml:"crossover_only"`
}

// BuildWeights weigh the strategies of the gene builder.
type BuildWeights struct {
	Branch      int `yaml:"branch"`
	Application int `yaml:"application"`
	Construct   int `yaml:"construct"`
	Lookup      int `yaml:"lookup"`
	Maybe       int `yaml:"maybe"`
}

type FixNumRange struct {
	Min    int64 `yaml:"min"`
	Max    int64 `yaml:"max"`
	Weight int   `yaml:"weight"`
}

type RealRange struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Weight int     `yaml:"weight"`
}

// GeneProbabilities shape the literal and structural genes the builder
// produces. Length weights are indexed by length.
type GeneProbabilities struct {
	Build             BuildWeights  `yaml:"build"`
	StringLengths     []int         `yaml:"string_lengths"`
	ListLengths       []int         `yaml:"list_lengths"`
	ChromosomeLengths []int         `yaml:"chromosome_lengths"`
	GenomeSizes       []int         `yaml:"genome_sizes"`
	FixNumRanges      []FixNumRange `yaml:"fixnum_ranges"`
	RealRanges        []RealRange   `yaml:"real_ranges"`
	MaybeIsNull       float64       `yaml:"maybe_is_null"`
}

// TypeWeight weighs a concrete type given in type syntax.
type TypeWeight struct {
	Type   string `yaml:"type"`
	Weight int    `yaml:"weight"`
}

// TypeProbabilities shape randomly created types. ArgCounts is indexed by
// argument count.
type TypeProbabilities struct {
	Concrete        []TypeWeight `yaml:"concrete"`
	Function        int          `yaml:"function"`
	List            int          `yaml:"list"`
	Maybe           int          `yaml:"maybe"`
	Cons            int          `yaml:"cons"`
	Parameter       int          `yaml:"parameter"`
	NewParameter    float64      `yaml:"new_parameter"`
	ArgCounts       []int        `yaml:"arg_counts"`
	AllowParameters bool         `yaml:"allow_parameters"`
}

type MutationProbabilities struct {
	TopLevel            float64 `yaml:"top_level"`
	Seed                float64 `yaml:"seed"`
	StringLength        float64 `yaml:"string_length"`
	SymbolLength        float64 `yaml:"symbol_length"`
	ListLength          float64 `yaml:"list_length"`
	SwapListItems       float64 `yaml:"swap_list_items"`
	ReorderList         float64 `yaml:"reorder_list"`
	FixNumRange         float64 `yaml:"fixnum_range"`
	RealRange           float64 `yaml:"real_range"`
	ReplaceSubgene      float64 `yaml:"replace_subgene"`
	AddGene             float64 `yaml:"add_gene"`
	SkipChromosome      float64 `yaml:"skip_chromosome"`
	AddChromosome       float64 `yaml:"add_chromosome"`
	AddTargetChromosome float64 `yaml:"add_target_chromosome"`
}

// Output names the files a run writes. Empty paths are not written.
type Output struct {
	PopulationFile string `yaml:"population_file,omitempty"`
	Archive        string `yaml:"archive,omitempty"`
	History        string `yaml:"history,omitempty"`
	LogFile        string `yaml:"log_file,omitempty"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() *Settings {
	return &Settings{
		Runner:      "square",
		Population:  100,
		Generations: 50,
		BuildDepth:  DefaultBuildDepth,
		Survival: SurvivalRatios{
			Survivors:        0.1,
			MutatedSurvivors: 0.4,
			Mutants:          0.05,
			CrossoverOnly:    0.25,
		},
		Genes: GeneProbabilities{
			Build:             BuildWeights{Branch: 5, Application: 20, Construct: 20, Lookup: 50, Maybe: 1},
			StringLengths:     []int{0, 1, 3, 5, 10, 20, 10, 5, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
			ListLengths:       []int{0, 10, 20, 10, 5, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
			ChromosomeLengths: []int{0, 1, 2, 3, 2, 1},
			GenomeSizes:       []int{0, 1, 2, 3, 2, 1},
			FixNumRanges: []FixNumRange{
				{0, 1, 1}, {0, 2, 2}, {0, 10, 4}, {-1, 1, 3}, {0, 20, 4}, {0, 100, 5}, {0, 1000, 3},
				{math.MinInt32, math.MaxInt32, 1},
			},
			RealRanges: []RealRange{
				{0, 1, 1}, {0, 2, 2}, {0, 10, 4}, {-1, 1, 3}, {0, 20, 4}, {0, 100, 5}, {0, 1000, 3},
				{-1e20, 1e20, 1},
			},
			MaybeIsNull: 0.25,
		},
		Types: TypeProbabilities{
			Concrete: []TypeWeight{
				{FixNumTypeName, 100}, {RealTypeName, 100}, {NullTypeName, 100},
				{TrueTypeName, 100}, {BoolTypeName, 100}, {StringTypeName, 100},
			},
			Function:        1,
			List:            10,
			Maybe:           50,
			Cons:            1,
			Parameter:       1,
			NewParameter:    0.2,
			ArgCounts:       []int{3, 5, 10, 5, 4, 2, 1, 1},
			AllowParameters: true,
		},
		Mutation: MutationProbabilities{
			TopLevel:            0.5,
			Seed:                1 / 25.0,
			StringLength:        1 / 25.0,
			SymbolLength:        1 / 25.0,
			ListLength:          1 / 25.0,
			SwapListItems:       1 / 25.0,
			ReorderList:         1 / 25.0,
			FixNumRange:         1 / 25.0,
			RealRange:           1 / 25.0,
			ReplaceSubgene:      1 / 25.0,
			AddGene:             1 / 250.0,
			SkipChromosome:      1 / 1000.0,
			AddChromosome:       1 / 1000.0,
			AddTargetChromosome: 1 / 5000.0,
		},
	}
}

// LoadSettings reads a settings file. Fields missing from the file keep
// their default values.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	return ParseSettings(data, path)
}

// ParseSettings parses settings from YAML over the defaults.
// The path argument is used only for error messages.
func ParseSettings(data []byte, path string) (*Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.validate(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Marshal renders the settings as YAML.
func (s *Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func (s *Settings) validate(path string) error {
	if s.Population < 1 {
		return fmt.Errorf("%s: population must be positive, got %d", path, s.Population)
	}
	if s.Generations < 0 {
		return fmt.Errorf("%s: generations must not be negative", path)
	}
	if s.Workers < 0 || s.BuildDepth < 0 || s.Iterations < 0 || s.Timeout < 0 {
		return fmt.Errorf("%s: workers, build_depth, iterations and timeout must not be negative", path)
	}

	ratios := map[string]float64{
		"survival.survivors":         s.Survival.Survivors,
		"survival.mutated_survivors": s.Survival.MutatedSurvivors,
		"survival.mutants":           s.Survival.Mutants,
		"survival.crossover_only":    s.Survival.CrossoverOnly,
		"genes.maybe_is_null":        s.Genes.MaybeIsNull,
		"types.new_parameter":        s.Types.NewParameter,
	}
	m := s.Mutation
	for name, p := range map[string]float64{
		"top_level": m.TopLevel, "seed": m.Seed, "string_length": m.StringLength,
		"symbol_length": m.SymbolLength, "list_length": m.ListLength,
		"swap_list_items": m.SwapListItems, "reorder_list": m.ReorderList,
		"fixnum_range": m.FixNumRange, "real_range": m.RealRange,
		"replace_subgene": m.ReplaceSubgene, "add_gene": m.AddGene,
		"skip_chromosome": m.SkipChromosome, "add_chromosome": m.AddChromosome,
		"add_target_chromosome": m.AddTargetChromosome,
	} {
		ratios["mutation."+name] = p
	}
	for name, p := range ratios {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("%s: %s must be within [0, 1], got %v", path, name, p)
		}
	}
	if sum := s.Survival.Survivors + s.Survival.MutatedSurvivors + s.Survival.Mutants; sum > 1 {
		return fmt.Errorf("%s: survival ratios add up to %v, more than 1", path, sum)
	}

	for name, weights := range map[string][]int{
		"genes.string_lengths":     s.Genes.StringLengths,
		"genes.list_lengths":       s.Genes.ListLengths,
		"genes.chromosome_lengths": s.Genes.ChromosomeLengths,
		"genes.genome_sizes":       s.Genes.GenomeSizes,
		"types.arg_counts":         s.Types.ArgCounts,
	} {
		if err := checkWeights(weights); err != nil {
			return fmt.Errorf("%s: %s: %w", path, name, err)
		}
	}
	if s.Genes.GenomeSizes[0] > 0 {
		return fmt.Errorf("%s: genes.genome_sizes: a genome needs at least one chromosome", path)
	}

	b := s.Genes.Build
	if b.Branch < 0 || b.Application < 0 || b.Construct < 0 || b.Lookup < 0 || b.Maybe < 0 {
		return fmt.Errorf("%s: genes.build: weights must not be negative", path)
	}
	if b.Construct+b.Lookup == 0 {
		return fmt.Errorf("%s: genes.build: construct or lookup must have weight", path)
	}

	total := 0
	for i, r := range s.Genes.FixNumRanges {
		if r.Min > r.Max || r.Weight < 0 {
			return fmt.Errorf("%s: genes.fixnum_ranges[%d]: invalid range", path, i)
		}
		if r.Max-r.Min+1 <= 0 {
			return fmt.Errorf("%s: genes.fixnum_ranges[%d]: range too wide", path, i)
		}
		total += r.Weight
	}
	if total == 0 {
		return fmt.Errorf("%s: genes.fixnum_ranges: no weighted range", path)
	}
	total = 0
	for i, r := range s.Genes.RealRanges {
		if r.Min > r.Max || r.Weight < 0 || math.IsNaN(r.Min) || math.IsNaN(r.Max) {
			return fmt.Errorf("%s: genes.real_ranges[%d]: invalid range", path, i)
		}
		total += r.Weight
	}
	if total == 0 {
		return fmt.Errorf("%s: genes.real_ranges: no weighted range", path)
	}

	t := s.Types
	if t.Function < 0 || t.List < 0 || t.Maybe < 0 || t.Cons < 0 || t.Parameter < 0 {
		return fmt.Errorf("%s: types: weights must not be negative", path)
	}
	total = 0
	for i, c := range t.Concrete {
		if c.Type == "" || c.Weight < 0 {
			return fmt.Errorf("%s: types.concrete[%d]: type is required and weight must not be negative", path, i)
		}
		total += c.Weight
	}
	if total == 0 {
		return fmt.Errorf("%s: types.concrete: no weighted type", path)
	}
	return nil
}

func checkWeights(weights []int) error {
	total := 0
	for i, w := range weights {
		if w < 0 {
			return fmt.Errorf("weight %d is negative", i)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("no weighted entry")
	}
	return nil
}
