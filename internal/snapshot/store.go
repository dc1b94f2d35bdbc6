package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmpty is returned by Latest when the store holds no valid snapshots
var ErrEmpty = errors.New("no snapshots in backup store")

// partialSuffix marks in-progress dump files. It never matches a snapshot
// suffix, so a crash mid-dump can never leave a file that listing,
// retention, or latest-selection would mistake for a completed snapshot.
const partialSuffix = ".partial"

// Store is the backup store: a directory holding completed snapshots plus
// transient in-progress files
type Store struct {
	dir string
}

// NewStore opens the backup store at dir, creating the directory if needed
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("backup store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup store %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory
func (st *Store) Dir() string {
	return st.dir
}

// Path returns the full path of a snapshot name inside the store
func (st *Store) Path(name string) string {
	return filepath.Join(st.dir, name)
}

// Exists reports whether a file with the given name is already present
func (st *Store) Exists(name string) (bool, error) {
	_, err := os.Stat(st.Path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// List returns all completed snapshots in the store, sorted by embedded
// timestamp ascending with ties broken by filename. Files that do not parse
// as snapshots are ignored.
func (st *Store) List() ([]*Snapshot, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup store %s: %w", st.dir, err)
	}

	var snaps []*Snapshot
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), partialSuffix) {
			continue
		}
		database, ts, format, err := ParseName(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, &Snapshot{
			Database:  database,
			Timestamp: ts,
			Format:    format,
			Path:      st.Path(entry.Name()),
			Size:      info.Size(),
		})
	}

	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].Timestamp.Equal(snaps[j].Timestamp) {
			return snaps[i].Timestamp.Before(snaps[j].Timestamp)
		}
		return snaps[i].Name() < snaps[j].Name()
	})

	return snaps, nil
}

// Latest returns the snapshot with the most recent embedded timestamp,
// breaking ties on the lexicographically greatest filename. Returns
// ErrEmpty when the store has no valid snapshots.
func (st *Store) Latest() (*Snapshot, error) {
	snaps, err := st.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrEmpty
	}
	return snaps[len(snaps)-1], nil
}

// Resolve validates an explicit snapshot path and returns its parsed form.
// The file must exist and carry a well-formed snapshot name; it does not
// have to live inside the store directory.
func Resolve(path string) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot file not found: %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("snapshot path is a directory: %s", path)
	}

	database, ts, format, err := ParseName(filepath.Base(path))
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Database:  database,
		Timestamp: ts,
		Format:    format,
		Path:      path,
		Size:      info.Size(),
	}, nil
}

// CreateTemp opens a transient in-progress file for the given final
// snapshot name. The temp name carries the partial suffix so it is never
// visible as a completed snapshot.
func (st *Store) CreateTemp(name string) (*os.File, error) {
	return os.OpenFile(st.Path(name+partialSuffix), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
}

// Publish atomically renames a temp file to its final snapshot name. It
// refuses to overwrite: an existing file under the final name is a
// same-second collision and a hard failure.
func (st *Store) Publish(tempPath, name string) error {
	final := st.Path(name)
	if _, err := os.Stat(final); err == nil {
		return fmt.Errorf("snapshot %s already exists", name)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(tempPath, final); err != nil {
		return fmt.Errorf("failed to publish snapshot %s: %w", name, err)
	}
	return nil
}

// Discard removes a temp file after a failed dump. Missing files are not an
// error.
func (st *Store) Discard(tempPath string) error {
	err := os.Remove(tempPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Remove deletes a completed snapshot by name
func (st *Store) Remove(name string) error {
	return os.Remove(st.Path(name))
}
