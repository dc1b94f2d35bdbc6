// Package snapshot models completed database dump files and the backup
// store directory that holds them. A snapshot is immutable once published;
// its filename carries the database name and a second-resolution creation
// timestamp, which together are its identity.
package snapshot

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// TimestampLayout is the second-resolution timestamp embedded in snapshot
// filenames: <database>-<YYYYMMDDHHMMSS><suffix>
const TimestampLayout = "20060102150405"

// Format is the compression format of a snapshot
type Format string

const (
	FormatGzip Format = "gzip"
	FormatZstd Format = "zstd"
)

var formatSuffixes = map[Format]string{
	FormatGzip: ".sql.gz",
	FormatZstd: ".sql.zst",
}

// ParseFormat converts a configuration string into a Format
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if _, ok := formatSuffixes[f]; !ok {
		return "", fmt.Errorf("unsupported compression format: %s", s)
	}
	return f, nil
}

// Suffix returns the filename suffix for the format
func (f Format) Suffix() string {
	return formatSuffixes[f]
}

// NewWriter wraps w with the format's compression writer
func (f Format) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch f {
	case FormatGzip:
		return gzip.NewWriter(w), nil
	case FormatZstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported compression format: %s", f)
	}
}

// NewReader wraps r with the format's decompression reader
func (f Format) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch f {
	case FormatGzip:
		return gzip.NewReader(r)
	case FormatZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression format: %s", f)
	}
}

// Snapshot describes one completed dump file in the backup store
type Snapshot struct {
	Database  string
	Timestamp time.Time
	Format    Format
	Path      string
	Size      int64
}

// Name returns the snapshot filename, which is its identity
func (s *Snapshot) Name() string {
	return filepath.Base(s.Path)
}

// Age returns how old the snapshot is relative to now, based on the
// timestamp embedded in its name
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// Filename builds the canonical snapshot filename for a database, creation
// time, and compression format
func Filename(database string, ts time.Time, format Format) string {
	return database + "-" + ts.Format(TimestampLayout) + format.Suffix()
}

// ParseName parses a filename into its database name, embedded timestamp,
// and compression format. Files that do not match the snapshot naming
// scheme, including in-progress partial files, return an error.
func ParseName(name string) (database string, ts time.Time, format Format, err error) {
	var suffix string
	for f, s := range formatSuffixes {
		if strings.HasSuffix(name, s) {
			format = f
			suffix = s
			break
		}
	}
	if suffix == "" {
		return "", time.Time{}, "", fmt.Errorf("not a snapshot file: %s", name)
	}

	stem := strings.TrimSuffix(name, suffix)
	sep := strings.LastIndex(stem, "-")
	if sep <= 0 || sep == len(stem)-1 {
		return "", time.Time{}, "", fmt.Errorf("malformed snapshot name: %s", name)
	}

	database = stem[:sep]
	ts, err = time.ParseInLocation(TimestampLayout, stem[sep+1:], time.Local)
	if err != nil {
		return "", time.Time{}, "", fmt.Errorf("malformed snapshot timestamp in %s: %w", name, err)
	}

	return database, ts, format, nil
}
