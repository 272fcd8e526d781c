package migrator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads is the maximum number of migration pairs read at once.
const maxConcurrentReads = 8

var upScriptRx = regexp.MustCompile(`^([0-9]+)\.up\.(.+)$`)

// scriptPair is a discovered forward script and the name of its backward pair.
type scriptPair struct {
	index    int
	upPath   string
	downPath string
}

func (p scriptPair) read(fsys vfs.FileSystem) (*Migration, error) {
	up, err := vfs.ReadFile(fsys, p.upPath)
	if err != nil {
		return nil, LoadError{Index: p.index, Path: p.upPath, Err: err}
	}
	down, err := vfs.ReadFile(fsys, p.downPath)
	if err != nil {
		return nil, LoadError{Index: p.index, Path: p.downPath, Err: err}
	}

	return &Migration{
		Index:    p.index,
		Up:       string(up),
		Down:     string(down),
		UpPath:   p.upPath,
		DownPath: p.downPath,
	}, nil
}

// Load reads all migrations from dir on the given filesystem. Forward scripts
// must be named `{N}.up.{ext}`, and each must be paired with a backward script
// named `{N}.down.{ext}`. Files that don't match the forward naming are
// ignored. The resulting sequence must have no gaps between 0 and the highest
// index.
func Load(fsys vfs.FileSystem, dir string) (*Sequence, error) {
	pairs, err := discover(fsys, dir)
	if err != nil {
		return nil, err
	}

	migrations := make([]*Migration, len(pairs))
	errs := make([]error, len(pairs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, pair := range pairs {
		g.Go(func() error {
			migrations[i], errs[i] = pair.read(fsys)
			return errs[i]
		})
	}
	if err = g.Wait(); err != nil {
		// Report the failure with the lowest index, not the first one to happen.
		for _, rerr := range errs {
			if rerr != nil {
				return nil, rerr
			}
		}
		return nil, err
	}

	return NewSequence(migrations...)
}

// discover finds all forward scripts in dir and their backward pairs, ordered
// by index.
func discover(fsys vfs.FileSystem, dir string) ([]scriptPair, error) {
	entries, err := vfs.ReadDir(fsys, dir)
	if err != nil {
		return nil, LoadError{Index: -1, Path: dir, Err: err}
	}

	files := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files[entry.Name()] = struct{}{}
		names = append(names, entry.Name())
	}
	slices.Sort(names)

	var (
		pairs = make([]scriptPair, 0, len(names)/2)
		seen  = make(map[int]string)
	)
	for _, name := range names {
		match := upScriptRx.FindStringSubmatch(name)
		if match == nil {
			continue
		}

		upPath := filepath.Join(dir, name)
		idx, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, LoadError{
				Index: -1, Path: upPath,
				Err: fmt.Errorf("invalid migration index '%s': %w", match[1], err),
			}
		}

		if prev, ok := seen[idx]; ok {
			return nil, DuplicateStepError{Index: idx, Paths: []string{prev, upPath}}
		}
		seen[idx] = upPath

		downName := fmt.Sprintf("%s.down.%s", match[1], match[2])
		downPath := filepath.Join(dir, downName)
		if _, ok := files[downName]; !ok {
			return nil, MissingPairError{Index: idx, Path: downPath}
		}

		pairs = append(pairs, scriptPair{index: idx, upPath: upPath, downPath: downPath})
	}

	slices.SortFunc(pairs, func(a, b scriptPair) int {
		return a.index - b.index
	})

	return pairs, nil
}
