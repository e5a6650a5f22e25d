package genes

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

func TestPopulationRoundTrip(t *testing.T) {
	registry := symbols.NewBaseRegistry()
	p := typesystem.NewParameter()
	identity := typesystem.NewFunction(p, p)
	genomes := []*Genome{
		squareGenome(),
		NewGenome(
			NewChromosome("crA", sampleGenes()...),
			NewChromosome("crB", NewFunctionGene(identity, "crB1", NewLookupGene(p, "crB1p0", 4), false)),
			squareGenome().Chromosomes()[0],
		),
	}
	target := typesystem.MustParse("(-> FixNum FixNum)")

	data := NewEncoder().AppendPopulation(nil, target, genomes)
	gotTarget, got, err := NewDecoder().Population(data)
	if err != nil {
		t.Fatal(err)
	}
	if !gotTarget.Equal(target) {
		t.Errorf("target = %s, want %s", gotTarget, target)
	}
	if len(got) != len(genomes) {
		t.Fatalf("decoded %d genomes, want %d", len(got), len(genomes))
	}
	for i := range genomes {
		want, err := genomes[i].Program(registry)
		if err != nil {
			t.Fatal(err)
		}
		have, err := got[i].Program(registry)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, have); diff != "" {
			t.Errorf("genome %d program mismatch (-want +got):\n%s", i, diff)
		}
	}

	decoded := got[1].Chromosomes()[1].Genes()[0].Type().(*typesystem.Function)
	if decoded.Return() != decoded.Arguments()[0] {
		t.Error("shared parameter decoded as two parameters")
	}
	if decoded.Return() == typesystem.Type(p) {
		t.Error("decoded parameter aliases the encoded one")
	}
}

func TestDecodeCorrupt(t *testing.T) {
	valid := NewEncoder().AppendGenome(nil, squareGenome())
	unknownGene := appendMessage(appendString(nil, fieldName, "c"), fieldChild, appendVarint(nil, fieldKind, 99))
	badCons := appendMessage(appendVarint(nil, fieldKind, geneCons), fieldType, NewEncoder().AppendType(nil, typesystem.FixNum))
	tests := []struct {
		name   string
		decode func() error
	}{
		{"truncated", func() error { _, err := NewDecoder().Genome(valid[:len(valid)-3]); return err }},
		{"garbage", func() error { _, err := NewDecoder().Genome([]byte{0xff, 0xff, 0xff}); return err }},
		{"unknown gene", func() error { _, err := NewDecoder().Chromosome(unknownGene); return err }},
		{"cons of fixnum", func() error { _, err := NewDecoder().Gene(badCons); return err }},
		{"population count", func() error {
			data := NewEncoder().AppendPopulation(nil, typesystem.FixNum, []*Genome{squareGenome()})
			data = appendVarint(data, fieldLength, 5)
			_, _, err := NewDecoder().Population(data)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.decode(); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("err = %v, want ErrCorrupt", err)
			}
		})
	}
}
