package genes

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/funvibe/pipevo/internal/typesystem"
)

// Genomes are stored as protobuf wire records. Types, genes, chromosomes
// and genomes share one field numbering.
const (
	fieldKind         protowire.Number = 1
	fieldType         protowire.Number = 2
	fieldSeed         protowire.Number = 3
	fieldMin          protowire.Number = 4
	fieldMax          protowire.Number = 5
	fieldLength       protowire.Number = 6
	fieldName         protowire.Number = 7
	fieldChild        protowire.Number = 8
	fieldLambda       protowire.Number = 9
	fieldFunctionType protowire.Number = 10
	fieldParameter    protowire.Number = 11
)

const (
	typeBase uint64 = iota + 1
	typeMaybe
	typeCons
	typeList
	typeFunction
	typeParameter
)

const (
	geneFixNum uint64 = iota + 1
	geneReal
	geneBool
	geneString
	geneSymbol
	geneTrue
	geneNull
	geneLookup
	geneCons
	geneList
	geneFunction
	geneIf
	geneDemaybe
	genePassMaybe
	geneApplication
)

var ErrCorrupt = errors.New("corrupt genome record")

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

// Encoder writes records. Parameters keep their identity across every
// record written by the same Encoder.
type Encoder struct {
	params map[*typesystem.Parameter]uint64
}

func NewEncoder() *Encoder {
	return &Encoder{params: map[*typesystem.Parameter]uint64{}}
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendFixed64(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, v)
}

// AppendType appends the record of t to b.
func (e *Encoder) AppendType(b []byte, t typesystem.Type) []byte {
	switch t := t.(type) {
	case *typesystem.Base:
		b = appendVarint(b, fieldKind, typeBase)
		b = appendString(b, fieldName, t.Name())
	case *typesystem.Maybe:
		b = appendVarint(b, fieldKind, typeMaybe)
		b = appendMessage(b, fieldChild, e.AppendType(nil, t.Inner()))
	case *typesystem.Cons:
		b = appendVarint(b, fieldKind, typeCons)
		b = appendMessage(b, fieldChild, e.AppendType(nil, t.Car()))
		b = appendMessage(b, fieldChild, e.AppendType(nil, t.Cdr()))
	case *typesystem.List:
		b = appendVarint(b, fieldKind, typeList)
		b = appendMessage(b, fieldChild, e.AppendType(nil, t.Element()))
	case *typesystem.Function:
		b = appendVarint(b, fieldKind, typeFunction)
		b = appendMessage(b, fieldChild, e.AppendType(nil, t.Return()))
		for _, arg := range t.Arguments() {
			b = appendMessage(b, fieldChild, e.AppendType(nil, arg))
		}
	case *typesystem.Parameter:
		index, ok := e.params[t]
		if !ok {
			index = uint64(len(e.params))
			e.params[t] = index
		}
		b = appendVarint(b, fieldKind, typeParameter)
		b = appendVarint(b, fieldParameter, index)
	}
	return b
}

// AppendGene appends the record of g to b.
func (e *Encoder) AppendGene(b []byte, g Gene) []byte {
	typed := func(kind uint64, t typesystem.Type) {
		b = appendVarint(b, fieldKind, kind)
		b = appendMessage(b, fieldType, e.AppendType(nil, t))
	}
	children := func(genes ...Gene) {
		for _, child := range genes {
			b = appendMessage(b, fieldChild, e.AppendGene(nil, child))
		}
	}

	switch g := g.(type) {
	case *FixNumGenerator:
		b = appendVarint(b, fieldKind, geneFixNum)
		b = appendVarint(b, fieldSeed, protowire.EncodeZigZag(g.Seed))
		b = appendVarint(b, fieldMin, protowire.EncodeZigZag(g.Min))
		b = appendVarint(b, fieldMax, protowire.EncodeZigZag(g.Max))
	case *RealGenerator:
		b = appendVarint(b, fieldKind, geneReal)
		b = appendVarint(b, fieldSeed, protowire.EncodeZigZag(g.Seed))
		b = appendFixed64(b, fieldMin, math.Float64bits(g.Min))
		b = appendFixed64(b, fieldMax, math.Float64bits(g.Max))
	case *BoolGenerator:
		b = appendVarint(b, fieldKind, geneBool)
		b = appendVarint(b, fieldSeed, protowire.EncodeZigZag(g.Seed))
	case *StringGenerator:
		b = appendVarint(b, fieldKind, geneString)
		b = appendVarint(b, fieldSeed, protowire.EncodeZigZag(g.Seed))
		b = appendVarint(b, fieldLength, uint64(g.Length))
	case *SymbolGenerator:
		b = appendVarint(b, fieldKind, geneSymbol)
		b = appendVarint(b, fieldSeed, protowire.EncodeZigZag(g.Seed))
		b = appendVarint(b, fieldLength, uint64(g.Length))
	case *TrueGene:
		b = appendVarint(b, fieldKind, geneTrue)
	case *NullGene:
		typed(geneNull, g.typ)
	case *LookupGene:
		typed(geneLookup, g.typ)
		b = appendString(b, fieldName, g.Name)
		b = appendVarint(b, fieldSeed, protowire.EncodeZigZag(g.Seed))
	case *ConsGene:
		typed(geneCons, g.typ)
		children(g.Car, g.Cdr)
	case *ListGene:
		typed(geneList, g.typ)
		children(g.Items...)
	case *FunctionGene:
		typed(geneFunction, g.typ)
		b = appendString(b, fieldName, g.Name)
		if g.Lambda {
			b = appendVarint(b, fieldLambda, 1)
		}
		children(g.Body)
	case *IfGene:
		typed(geneIf, g.typ)
		children(g.Predicate, g.Then, g.Else)
	case *DemaybeGene:
		b = appendVarint(b, fieldKind, geneDemaybe)
		b = appendString(b, fieldName, g.Var)
		children(g.Optional, g.Fallback)
	case *PassMaybeGene:
		typed(genePassMaybe, g.typ)
		b = appendMessage(b, fieldFunctionType, e.AppendType(nil, g.fnType))
		b = appendString(b, fieldName, g.Var)
		children(g.Function)
		children(g.Arguments...)
	case *ApplicationGene:
		typed(geneApplication, g.fnType)
		children(g.Function)
		children(g.Arguments...)
	}
	return b
}

func (e *Encoder) AppendChromosome(b []byte, c *Chromosome) []byte {
	b = appendString(b, fieldName, c.Name)
	for _, g := range c.genes {
		b = appendMessage(b, fieldChild, e.AppendGene(nil, g))
	}
	return b
}

func (e *Encoder) AppendGenome(b []byte, g *Genome) []byte {
	for _, c := range g.chromosomes {
		b = appendMessage(b, fieldChild, e.AppendChromosome(nil, c))
	}
	return b
}

// AppendPopulation appends a record of the target type, the genome count
// and every genome.
func (e *Encoder) AppendPopulation(b []byte, target typesystem.Type, genomes []*Genome) []byte {
	b = appendMessage(b, fieldType, e.AppendType(nil, target))
	b = appendVarint(b, fieldLength, uint64(len(genomes)))
	for _, g := range genomes {
		b = appendMessage(b, fieldChild, e.AppendGenome(nil, g))
	}
	return b
}

type record struct {
	kind      uint64
	typ       []byte
	fnType    []byte
	seed      int64
	min, max  uint64
	length    uint64
	name      string
	children  [][]byte
	lambda    bool
	parameter uint64
	hasLength bool
}

func parseRecord(b []byte) (*record, error) {
	r := &record{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, corrupt("%v", protowire.ParseError(n))
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			switch num {
			case fieldKind:
				r.kind = v
			case fieldSeed:
				r.seed = protowire.DecodeZigZag(v)
			case fieldMin:
				r.min = v
			case fieldMax:
				r.max = v
			case fieldLength:
				r.length, r.hasLength = v, true
			case fieldLambda:
				r.lambda = v != 0
			case fieldParameter:
				r.parameter = v
			}
		case protowire.Fixed64Type:
			var v uint64
			v, n = protowire.ConsumeFixed64(b)
			switch num {
			case fieldMin:
				r.min = v
			case fieldMax:
				r.max = v
			}
		case protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			switch num {
			case fieldType:
				r.typ = v
			case fieldFunctionType:
				r.fnType = v
			case fieldName:
				r.name = string(v)
			case fieldChild:
				r.children = append(r.children, v)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, corrupt("field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return r, nil
}

// Decoder reads records written by an Encoder. Parameters with the same
// index decode to the same Parameter.
type Decoder struct {
	params map[uint64]*typesystem.Parameter
}

func NewDecoder() *Decoder {
	return &Decoder{params: map[uint64]*typesystem.Parameter{}}
}

func (d *Decoder) types(records [][]byte) ([]typesystem.Type, error) {
	types := make([]typesystem.Type, len(records))
	for i, child := range records {
		t, err := d.Type(child)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func (d *Decoder) Type(b []byte) (typesystem.Type, error) {
	r, err := parseRecord(b)
	if err != nil {
		return nil, err
	}
	children, err := d.types(r.children)
	if err != nil {
		return nil, err
	}
	arity := func(n int) error {
		if len(children) != n {
			return corrupt("type kind %d with %d components", r.kind, len(children))
		}
		return nil
	}

	switch r.kind {
	case typeBase:
		for _, base := range typesystem.BaseTypes {
			if base.Name() == r.name {
				return base, nil
			}
		}
		return nil, corrupt("unknown base type %q", r.name)
	case typeMaybe:
		if err := arity(1); err != nil {
			return nil, err
		}
		return typesystem.NewMaybe(children[0]), nil
	case typeCons:
		if err := arity(2); err != nil {
			return nil, err
		}
		return typesystem.NewCons(children[0], children[1]), nil
	case typeList:
		if err := arity(1); err != nil {
			return nil, err
		}
		return typesystem.NewList(children[0]), nil
	case typeFunction:
		if len(children) == 0 {
			return nil, corrupt("function type without return type")
		}
		return typesystem.NewFunction(children[0], children[1:]...), nil
	case typeParameter:
		p, ok := d.params[r.parameter]
		if !ok {
			p = typesystem.NewParameter()
			d.params[r.parameter] = p
		}
		return p, nil
	}
	return nil, corrupt("unknown type kind %d", r.kind)
}

func (d *Decoder) genes(records [][]byte) ([]Gene, error) {
	genes := make([]Gene, len(records))
	for i, child := range records {
		g, err := d.Gene(child)
		if err != nil {
			return nil, err
		}
		genes[i] = g
	}
	return genes, nil
}

func (d *Decoder) Gene(b []byte) (Gene, error) {
	r, err := parseRecord(b)
	if err != nil {
		return nil, err
	}
	var t typesystem.Type
	if r.typ != nil {
		if t, err = d.Type(r.typ); err != nil {
			return nil, err
		}
	}
	children, err := d.genes(r.children)
	if err != nil {
		return nil, err
	}
	need := func(n int) error {
		if len(children) < n {
			return corrupt("gene kind %d with %d children", r.kind, len(children))
		}
		return nil
	}

	switch r.kind {
	case geneFixNum:
		return NewFixNumGenerator(r.seed, protowire.DecodeZigZag(r.min), protowire.DecodeZigZag(r.max)), nil
	case geneReal:
		return NewRealGenerator(r.seed, math.Float64frombits(r.min), math.Float64frombits(r.max)), nil
	case geneBool:
		return NewBoolGenerator(r.seed), nil
	case geneString:
		return NewStringGenerator(r.seed, int(r.length)), nil
	case geneSymbol:
		return NewSymbolGenerator(r.seed, int(r.length)), nil
	case geneTrue:
		return NewTrueGene(), nil
	case geneNull:
		return NewNullGene(t), nil
	case geneLookup:
		if t == nil {
			return nil, corrupt("lookup gene without type")
		}
		return NewLookupGene(t, r.name, r.seed), nil
	case geneCons:
		cons, ok := t.(*typesystem.Cons)
		if !ok {
			return nil, corrupt("cons gene of type %v", t)
		}
		if err := need(2); err != nil {
			return nil, err
		}
		return NewConsGene(cons, children[0], children[1]), nil
	case geneList:
		list, ok := t.(*typesystem.List)
		if !ok {
			return nil, corrupt("list gene of type %v", t)
		}
		return NewListGene(list, children...), nil
	case geneFunction:
		fn, ok := t.(*typesystem.Function)
		if !ok {
			return nil, corrupt("function gene of type %v", t)
		}
		if err := need(1); err != nil {
			return nil, err
		}
		return NewFunctionGene(fn, r.name, children[0], r.lambda), nil
	case geneIf:
		if t == nil {
			return nil, corrupt("if gene without type")
		}
		if err := need(3); err != nil {
			return nil, err
		}
		return NewIfGene(t, children[0], children[1], children[2]), nil
	case geneDemaybe:
		if err := need(2); err != nil {
			return nil, err
		}
		if _, ok := children[0].Type().(*typesystem.Maybe); !ok {
			return nil, corrupt("optional gene of type %v", children[0].Type())
		}
		return NewDemaybeGene(children[0], children[1], r.name), nil
	case genePassMaybe:
		if t == nil || r.fnType == nil {
			return nil, corrupt("optional application without types")
		}
		ft, err := d.Type(r.fnType)
		if err != nil {
			return nil, err
		}
		fn, ok := ft.(*typesystem.Function)
		if !ok || len(children) != fn.Arity()+1 {
			return nil, corrupt("optional application of %v", ft)
		}
		return NewPassMaybeGene(t, fn, children[0], children[1:], r.name), nil
	case geneApplication:
		fn, ok := t.(*typesystem.Function)
		if !ok || len(children) != fn.Arity()+1 {
			return nil, corrupt("application of %v", t)
		}
		return NewApplicationGene(fn, children[0], children[1:]...), nil
	}
	return nil, corrupt("unknown gene kind %d", r.kind)
}

func (d *Decoder) Chromosome(b []byte) (*Chromosome, error) {
	r, err := parseRecord(b)
	if err != nil {
		return nil, err
	}
	genes, err := d.genes(r.children)
	if err != nil {
		return nil, err
	}
	return NewChromosome(r.name, genes...), nil
}

func (d *Decoder) Genome(b []byte) (*Genome, error) {
	r, err := parseRecord(b)
	if err != nil {
		return nil, err
	}
	g := NewGenome()
	for _, child := range r.children {
		c, err := d.Chromosome(child)
		if err != nil {
			return nil, err
		}
		g.Add(c)
	}
	return g, nil
}

// Population decodes a record written by AppendPopulation.
func (d *Decoder) Population(b []byte) (typesystem.Type, []*Genome, error) {
	r, err := parseRecord(b)
	if err != nil {
		return nil, nil, err
	}
	if r.typ == nil || !r.hasLength {
		return nil, nil, corrupt("population without target type or count")
	}
	target, err := d.Type(r.typ)
	if err != nil {
		return nil, nil, err
	}
	if r.length != uint64(len(r.children)) {
		return nil, nil, corrupt("population of %d genomes holds %d", r.length, len(r.children))
	}
	genomes := make([]*Genome, len(r.children))
	for i, child := range r.children {
		if genomes[i], err = d.Genome(child); err != nil {
			return nil, nil, err
		}
	}
	return target, genomes, nil
}
