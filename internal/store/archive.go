package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/funvibe/pipevo/internal/evolve"
)

const (
	// bucketRuns maps a sequence number to a run id, in start order.
	bucketRuns = "runs"
	// bucketPopulations holds one nested bucket per run id, mapping a
	// generation number to an encoded population.
	bucketPopulations = "populations"
)

var initArchive = map[string]func(*bolt.Tx) error{
	"initialize run table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	},
	"initialize population table": func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketPopulations))
		return err
	},
}

// Archive keeps a snapshot of every generation of every run. As an
// evolve.PopulationStore it writes to its current run, started on the first
// save unless StartRun or Resume chose one.
type Archive struct {
	db   *bolt.DB
	run  string
	base int
}

func OpenArchive(path string) (*Archive, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for name, fn := range initArchive {
			if err := fn(tx); err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error { return a.db.Close() }

// Run returns the current run id, empty before the first save.
func (a *Archive) Run() string { return a.run }

// StartRun registers a new run and makes it current. An empty id is replaced
// with a random one.
func (a *Archive) StartRun(id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	err := a.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket([]byte(bucketRuns))
		seq, err := runs.NextSequence()
		if err != nil {
			return err
		}
		if err := runs.Put(marshalSeq(seq), []byte(id)); err != nil {
			return err
		}
		_, err = tx.Bucket([]byte(bucketPopulations)).CreateBucketIfNotExists([]byte(id))
		return err
	})
	if err != nil {
		return "", err
	}
	a.run, a.base = id, 0
	logger.Printf("started run %s", id)
	return id, nil
}

// Resume makes run current; generation numbers passed to SavePopulation
// then count from generation.
func (a *Archive) Resume(run string, generation int) {
	a.run, a.base = run, generation
}

func (a *Archive) SavePopulation(generation int, p *evolve.Population) error {
	if a.run == "" {
		if _, err := a.StartRun(""); err != nil {
			return err
		}
	}
	return a.Save(a.run, a.base+generation, p)
}

// Save stores p as generation of run, replacing an earlier snapshot.
func (a *Archive) Save(run string, generation int, p *evolve.Population) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	return a.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket([]byte(bucketPopulations)).CreateBucketIfNotExists([]byte(run))
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(uint64(generation)), data)
	})
}

// Runs lists run ids in the order they were started.
func (a *Archive) Runs() ([]string, error) {
	var runs []string
	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketRuns)).ForEach(func(_, v []byte) error {
			runs = append(runs, string(v))
			return nil
		})
	})
	return runs, err
}

// LatestRun returns the most recently started run.
func (a *Archive) LatestRun() (string, error) {
	var run string
	err := a.db.View(func(tx *bolt.Tx) error {
		_, v := tx.Bucket([]byte(bucketRuns)).Cursor().Last()
		if v == nil {
			return fmt.Errorf("no run: %w", ErrNotFound)
		}
		run = string(v)
		return nil
	})
	return run, err
}

// Generations lists the stored generation numbers of run in ascending order.
func (a *Archive) Generations(run string) ([]int, error) {
	var generations []int
	err := a.db.View(func(tx *bolt.Tx) error {
		b, err := runBucket(tx, run)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, _ []byte) error {
			generations = append(generations, int(unmarshalSeq(k)))
			return nil
		})
	})
	return generations, err
}

// Load returns generation of run.
func (a *Archive) Load(run string, generation int) (*evolve.Population, error) {
	var data []byte
	err := a.db.View(func(tx *bolt.Tx) error {
		b, err := runBucket(tx, run)
		if err != nil {
			return err
		}
		v := b.Get(marshalSeq(uint64(generation)))
		if v == nil {
			return fmt.Errorf("run %s generation %d: %w", run, generation, ErrNotFound)
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return evolve.UnmarshalPopulation(data)
}

// Latest returns the highest stored generation of run. An empty run means
// the most recently started one.
func (a *Archive) Latest(run string) (string, int, *evolve.Population, error) {
	if run == "" {
		var err error
		if run, err = a.LatestRun(); err != nil {
			return "", 0, nil, err
		}
	}
	var (
		generation int
		data       []byte
	)
	err := a.db.View(func(tx *bolt.Tx) error {
		b, err := runBucket(tx, run)
		if err != nil {
			return err
		}
		k, v := b.Cursor().Last()
		if k == nil {
			return fmt.Errorf("run %s has no generation: %w", run, ErrNotFound)
		}
		generation = int(unmarshalSeq(k))
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return "", 0, nil, err
	}
	p, err := evolve.UnmarshalPopulation(data)
	if err != nil {
		return "", 0, nil, err
	}
	return run, generation, p, nil
}

func runBucket(tx *bolt.Tx, run string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(bucketPopulations)).Bucket([]byte(run))
	if b == nil {
		return nil, fmt.Errorf("run %s: %w", run, ErrNotFound)
	}
	return b, nil
}
