package procmounts

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPath is the live mount table of the calling process
const DefaultPath = "/proc/mounts"

// Reader reads a mounts file from a filesystem
type Reader struct {
	fs   afero.Fs
	path string
}

// NewReader creates a Reader for the mounts file at path
func NewReader(fs afero.Fs, path string) *Reader {
	return &Reader{fs: fs, path: path}
}

// ReadLiveMounts parses the mounts file and returns all mount entries
func (r *Reader) ReadLiveMounts() ([]Entry, error) {
	file, err := r.fs.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer file.Close()

	mounts, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	return mounts, nil
}

// Parse parses mount entries in /proc/mounts format
func Parse(in io.Reader) ([]Entry, error) {
	var mounts []Entry
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}

		mounts = append(mounts, Entry{
			Device:     unescapeField(fields[0]),
			MountPoint: unescapeField(fields[1]),
			FSType:     fields[2],
			Options:    splitOptions(fields[3]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return mounts, nil
}

func splitOptions(field string) []string {
	opts := strings.Split(field, ",")
	for i, opt := range opts {
		opts[i] = unescapeField(opt)
	}
	return opts
}

// unescapeField unescapes special characters in mount fields
// /proc/mounts escapes spaces as \040, tabs as \011, etc.
func unescapeField(s string) string {
	s = strings.ReplaceAll(s, "\\040", " ")
	s = strings.ReplaceAll(s, "\\011", "\t")
	s = strings.ReplaceAll(s, "\\012", "\n")
	s = strings.ReplaceAll(s, "\\134", "\\")
	return s
}
