package migrator

import (
	"fmt"
	"slices"
)

// Direction is the direction in which a migration step is applied.
type Direction int

// Valid migration directions.
const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// delta returns the change this direction makes to the schema version.
func (d Direction) delta() int {
	if d == Down {
		return -1
	}
	return 1
}

// Migration is the schema change at a single version. Up transitions the
// schema from version Index-1 to Index, and Down from Index to Index-1.
type Migration struct {
	Index    int
	Up       string
	Down     string
	UpPath   string
	DownPath string
}

// Script returns the script text and file path for the given direction.
func (m *Migration) Script(dir Direction) (script, path string) {
	if dir == Down {
		return m.Down, m.DownPath
	}
	return m.Up, m.UpPath
}

// Sequence is an ordered, gap-free set of migrations, keyed by index.
// It must not be modified after it's loaded.
type Sequence struct {
	migrations map[int]*Migration
}

// NewSequence creates a Sequence from the given migrations. It fails if two
// migrations share an index, or if the indices don't form a contiguous range
// starting at 0.
func NewSequence(migrations ...*Migration) (*Sequence, error) {
	seq := &Sequence{migrations: make(map[int]*Migration, len(migrations))}
	for _, m := range migrations {
		if _, ok := seq.migrations[m.Index]; ok {
			return nil, DuplicateStepError{Index: m.Index}
		}
		seq.migrations[m.Index] = m
	}

	if err := seq.validate(); err != nil {
		return nil, err
	}

	return seq, nil
}

// validate checks that every index in [0, max] is present.
func (s *Sequence) validate() error {
	maxIdx := -1
	for idx := range s.migrations {
		if idx < 0 {
			return MissingStepError{Index: 0}
		}
		maxIdx = max(maxIdx, idx)
	}
	for i := 0; i <= maxIdx; i++ {
		if _, ok := s.migrations[i]; !ok {
			return MissingStepError{Index: i}
		}
	}

	return nil
}

// Len returns the number of migrations in the sequence.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.migrations)
}

// Latest returns the highest version reachable with this sequence, or -1 if
// the sequence is empty.
func (s *Sequence) Latest() int {
	return s.Len() - 1
}

// Get returns the migration at index i.
func (s *Sequence) Get(i int) (*Migration, bool) {
	if s == nil {
		return nil, false
	}
	m, ok := s.migrations[i]
	return m, ok
}

// Migrations returns all migrations ordered by ascending index.
func (s *Sequence) Migrations() []*Migration {
	if s == nil {
		return nil
	}
	migrations := make([]*Migration, 0, len(s.migrations))
	for _, m := range s.migrations {
		migrations = append(migrations, m)
	}
	slices.SortFunc(migrations, func(a, b *Migration) int {
		return a.Index - b.Index
	})

	return migrations
}

// Step is a single unit of a migration plan.
type Step struct {
	Index     int
	Direction Direction
	Script    string
	Path      string
}

func (s Step) String() string {
	return fmt.Sprintf("%d/%s", s.Index, s.Direction)
}

// Plan is the ordered list of steps that moves the schema from the Source
// version to the Target version.
type Plan struct {
	Source int
	Target int
	Steps  []Step
}

// Empty returns true if no steps need to be applied.
func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}
