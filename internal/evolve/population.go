package evolve

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Population is the genomes of one generation and the target they evolve
// towards.
type Population struct {
	Target  *typesystem.Function
	Genomes []*genes.Genome
}

func NewPopulation(target *typesystem.Function) *Population {
	return &Population{Target: target}
}

func (p *Population) Add(g *genes.Genome) { p.Genomes = append(p.Genomes, g) }
func (p *Population) Len() int            { return len(p.Genomes) }

// IsTarget reports whether the population evolves towards target, up to
// parameter renaming.
func (p *Population) IsTarget(target *typesystem.Function) bool {
	return typesystem.EqualModuloParameters(p.Target, target)
}

// MarshalBinary encodes the population as one population record.
func (p *Population) MarshalBinary() ([]byte, error) {
	return genes.NewEncoder().AppendPopulation(nil, p.Target, p.Genomes), nil
}

// UnmarshalPopulation decodes a record written by MarshalBinary.
func UnmarshalPopulation(b []byte) (*Population, error) {
	target, genomes, err := genes.NewDecoder().Population(b)
	if err != nil {
		return nil, err
	}
	fn, ok := target.(*typesystem.Function)
	if !ok {
		return nil, fmt.Errorf("%w: population target %s is not a function", genes.ErrCorrupt, target)
	}
	return &Population{Target: fn, Genomes: genomes}, nil
}

// WritePopulation writes the population record prefixed by its length.
func WritePopulation(w io.Writer, p *Population) error {
	record, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(protowire.AppendVarint(nil, uint64(len(record)))); err != nil {
		return err
	}
	_, err = w.Write(record)
	return err
}

// ReadPopulation reads one length-prefixed population record.
func ReadPopulation(r io.Reader) (*Population, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		buffered := bufio.NewReader(r)
		br, r = buffered, buffered
	}
	var prefix []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("reading population length: %w", err)
		}
		prefix = append(prefix, c)
		if c < 0x80 {
			break
		}
		if len(prefix) >= protowire.SizeVarint(^uint64(0)) {
			return nil, fmt.Errorf("%w: population length overflows", genes.ErrCorrupt)
		}
	}
	size, n := protowire.ConsumeVarint(prefix)
	if n < 0 {
		return nil, fmt.Errorf("%w: %v", genes.ErrCorrupt, protowire.ParseError(n))
	}
	record := make([]byte, size)
	if _, err := io.ReadFull(r, record); err != nil {
		return nil, fmt.Errorf("reading population record: %w", err)
	}
	return UnmarshalPopulation(record)
}

// SaveFile writes the population to path, replacing it atomically.
func (p *Population) SaveFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := WritePopulation(w, p); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func LoadFile(path string) (*Population, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := ReadPopulation(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return p, nil
}

// PopulationStore persists each generation before it is evaluated.
type PopulationStore interface {
	SavePopulation(generation int, p *Population) error
}

// FileStore keeps only the latest generation in one file.
type FileStore struct {
	Path string
}

func (s FileStore) SavePopulation(_ int, p *Population) error {
	return p.SaveFile(s.Path)
}

// Stores saves to each of its stores and joins their errors.
type Stores []PopulationStore

func (s Stores) SavePopulation(generation int, p *Population) error {
	var errs []error
	for _, store := range s {
		if err := store.SavePopulation(generation, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
