package migration

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\d{3,})_([A-Za-z0-9_-]+)\.sql$`)

// Scanner discovers migration files inside a filesystem.
type Scanner struct {
	fsys fs.FS
}

// NewScanner constructs a Scanner over the provided filesystem.
func NewScanner(fsys fs.FS) *Scanner {
	return &Scanner{fsys: fsys}
}

// ValidateFileName checks that a file follows the naming convention.
func (s *Scanner) ValidateFileName(name string) error {
	if !fileNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

// Scan walks dir inside the filesystem and returns all migrations ordered by
// version. Non-SQL files are ignored; malformed SQL file names and duplicate
// versions are reported as errors.
func (s *Scanner) Scan(dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migration: failed to read directory %q: %w", dir, err)
	}

	seen := make(map[string]string)
	migrations := make([]Migration, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		if err := s.ValidateFileName(entry.Name()); err != nil {
			return nil, err
		}

		parsed, err := s.parse(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		if previous, ok := seen[parsed.Version]; ok {
			return nil, fmt.Errorf("%w: %s appears in %q and %q", ErrDuplicateVersion, parsed.Version, previous, entry.Name())
		}
		seen[parsed.Version] = entry.Name()

		migrations = append(migrations, parsed)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func (s *Scanner) parse(filePath string) (Migration, error) {
	matches := fileNamePattern.FindStringSubmatch(path.Base(filePath))
	if matches == nil {
		return Migration{}, fmt.Errorf("%w: %q", ErrInvalidFileName, filePath)
	}

	content, err := fs.ReadFile(s.fsys, filePath)
	if err != nil {
		return Migration{}, fmt.Errorf("migration: failed to read %q: %w", filePath, err)
	}

	sqlText := strings.TrimSpace(string(content))
	if sqlText == "" {
		return Migration{}, fmt.Errorf("%w: %q", ErrEmptyMigration, filePath)
	}

	return Migration{
		Version:     matches[1],
		Description: strings.ReplaceAll(matches[2], "_", " "),
		SQL:         sqlText,
		Path:        filePath,
	}, nil
}
