package builder

import (
	"errors"
	"testing"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

func newGenomeBuilder(t *testing.T, seed int64, constraints ...Constraint) *GenomeBuilder {
	t.Helper()
	return genomeBuilderWith(t, config.DefaultSettings(), seed, constraints...)
}

func genomeBuilderWith(t *testing.T, settings *config.Settings, seed int64, constraints ...Constraint) *GenomeBuilder {
	t.Helper()
	probs, err := NewTypeProbabilities(settings.Types)
	if err != nil {
		t.Fatalf("NewTypeProbabilities: %v", err)
	}
	rng := entropy.New(seed)
	return NewGenomeBuilder(
		symbols.NewBaseRegistry(),
		NewTypeBuilder(rng, probs, constraints),
		NewGeneRandomizer(rng, settings.Genes),
		settings.BuildDepth,
	)
}

func TestBuildBoolAtDepthZero(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		gb := newGenomeBuilder(t, seed)
		b := NewGeneBuilder(gb.Types(), gb.Randomizer(), genes.NewContext(symbols.NewBaseRegistry()), 0)
		g, err := b.Build(typesystem.Bool)
		if err != nil {
			t.Fatalf("seed %d: Build(Bool): %v", seed, err)
		}
		if !g.Type().Equal(typesystem.Bool) {
			t.Errorf("seed %d: built %T of type %s", seed, g, g.Type())
		}
	}
}

func TestBuildGenomeExpresses(t *testing.T) {
	target := typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum)
	for seed := int64(1); seed <= 30; seed++ {
		gb := newGenomeBuilder(t, seed)
		genome, err := gb.BuildGenome(target)
		if err != nil {
			t.Fatalf("seed %d: BuildGenome: %v", seed, err)
		}
		chromosomes := genome.Chromosomes()
		last := chromosomes[len(chromosomes)-1]
		if last.Name != config.TargetChromosomeName || last.Len() != 1 {
			t.Fatalf("seed %d: last chromosome %s has %d genes", seed, last.Name, last.Len())
		}
		if !last.Genes()[0].Type().Equal(target) {
			t.Errorf("seed %d: target gene has type %s", seed, last.Genes()[0].Type())
		}
		if _, err := genome.Program(symbols.NewBaseRegistry()); err != nil {
			t.Errorf("seed %d: Program: %v", seed, err)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	target := typesystem.NewFunction(typesystem.Bool, typesystem.FixNum, typesystem.Real)
	program := func() string {
		genome, err := newGenomeBuilder(t, 42).BuildGenome(target)
		if err != nil {
			t.Fatalf("BuildGenome: %v", err)
		}
		text, err := genome.Program(symbols.NewBaseRegistry())
		if err != nil {
			t.Fatalf("Program: %v", err)
		}
		return text
	}
	if first, second := program(), program(); first != second {
		t.Errorf("same seed built different programs:\n%s\n%s", first, second)
	}
}

func TestBuildExhaustion(t *testing.T) {
	gb := newGenomeBuilder(t, 1, Constraint{Constrained: typesystem.FixNum, Sources: []typesystem.Type{typesystem.String}})
	b := NewGeneBuilder(gb.Types(), gb.Randomizer(), genes.NewContext(symbols.NewRegistry()), 3)
	_, err := b.Build(typesystem.FixNum)
	var exhausted *BuildExhaustionError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Build(FixNum) = %v, want BuildExhaustionError", err)
	}
	if !exhausted.Type.Equal(typesystem.FixNum) {
		t.Errorf("exhausted type = %s", exhausted.Type)
	}
}

func TestBuildConstrainedThroughApplication(t *testing.T) {
	constraint := Constraint{Constrained: typesystem.FixNum, Sources: []typesystem.Type{typesystem.Real}}
	fn := typesystem.NewFunction(typesystem.FixNum, typesystem.Real)
	settings := config.DefaultSettings()
	settings.Types.Cons = 0
	settings.Types.Function = 0
	for seed := int64(1); seed <= 20; seed++ {
		gb := genomeBuilderWith(t, settings, seed, constraint)
		ctx := genes.NewContext(symbols.NewBaseRegistry())
		g, err := gb.GeneBuilder(ctx).BuildFunction(fn, "f")
		if err != nil {
			t.Fatalf("seed %d: BuildFunction: %v", seed, err)
		}
		if _, err := g.Express(ctx); err != nil {
			t.Errorf("seed %d: Express: %v", seed, err)
		}
	}
}

func restrictedTypes(t *testing.T, seed int64, argCounts []int, constraints ...Constraint) *TypeBuilder {
	t.Helper()
	probs := TypeProbabilities{
		Concrete: []TypeWeight{
			{Type: typesystem.Real, Weight: 1},
			{Type: typesystem.FixNum, Weight: 1},
		},
		ArgCounts: argCounts,
	}
	return NewTypeBuilder(entropy.New(seed), probs, constraints)
}

func TestCreateFunctionForcesSource(t *testing.T) {
	constraint := Constraint{Constrained: typesystem.Symbol, Sources: []typesystem.Type{typesystem.String}}
	tests := []struct {
		name      string
		argCounts []int
		arity     int
	}{
		{"no arguments", []int{1}, 1},
		{"one argument", []int{0, 1}, 1},
		{"two arguments", []int{0, 0, 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := int64(1); seed <= 20; seed++ {
				fn := restrictedTypes(t, seed, tt.argCounts, constraint).CreateFunction(typesystem.Symbol)
				if fn.Arity() != tt.arity {
					t.Fatalf("seed %d: %s has arity %d, want %d", seed, fn, fn.Arity(), tt.arity)
				}
				forced := 0
				for _, arg := range fn.Arguments() {
					if arg.Equal(typesystem.String) || arg.Equal(typesystem.Symbol) {
						forced++
					}
				}
				if forced != 1 {
					t.Errorf("seed %d: %s has %d source arguments, want 1", seed, fn, forced)
				}
			}
		})
	}
}

func TestAllowDependentTypes(t *testing.T) {
	constraint := Constraint{Constrained: typesystem.FixNum, Sources: []typesystem.Type{typesystem.String}}
	types := restrictedTypes(t, 7, []int{1}, constraint)
	draw := func() (fixnums int) {
		for i := 0; i < 200; i++ {
			if types.CreateType().Equal(typesystem.FixNum) {
				fixnums++
			}
		}
		return fixnums
	}

	if n := draw(); n != 0 {
		t.Fatalf("constrained FixNum created %d times before allowed", n)
	}
	types.AllowDependentTypes([]typesystem.Type{typesystem.String})
	if n := draw(); n == 0 {
		t.Fatalf("FixNum never created once String was allowed")
	}
	types.ClearDependentTypes()
	if n := draw(); n != 0 {
		t.Errorf("FixNum created %d times after clearing", n)
	}
}

func TestCreateTypeSharesParameters(t *testing.T) {
	probs := TypeProbabilities{
		Concrete:        []TypeWeight{{Type: typesystem.FixNum, Weight: 1}},
		Parameter:       1000,
		AllowParameters: true,
		ArgCounts:       []int{0, 0, 1},
	}
	types := NewTypeBuilder(entropy.New(3), probs, nil)
	p := typesystem.NewParameter()
	for i := 0; i < 20; i++ {
		fn := types.CreateFunction(p)
		for _, arg := range fn.Arguments() {
			if _, ok := arg.(*typesystem.Parameter); ok && !arg.Equal(p) {
				t.Fatalf("%s introduced a parameter although NewParameter is zero", fn)
			}
		}
	}
}
