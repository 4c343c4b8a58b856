package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/multierr"
)

const versionLayout = "20060102150405"

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks a migrations root on disk. See ValidateFS.
func ValidateDir(root string) error {
	if root == "" {
		return fmt.Errorf("migrations root is required")
	}
	return ValidateFS(os.DirFS(root))
}

// ValidateFS checks every dialect directory for well-formed filenames, unique
// versions and goose markers, then requires the dialects to share the same
// version set. All problems are reported together.
func ValidateFS(fsys fs.FS) error {
	var errs error
	versions := make(map[string][]string, len(dialectDirs))
	for _, dialect := range dialectDirs {
		found, err := validateDialect(fsys, dialect)
		errs = multierr.Append(errs, err)
		versions[dialect] = found
	}
	if errs != nil {
		return errs
	}

	want := versions[dialectDirs[0]]
	for _, dialect := range dialectDirs[1:] {
		if !slices.Equal(want, versions[dialect]) {
			errs = multierr.Append(errs, fmt.Errorf("%s versions %v do not match %s versions %v",
				dialect, versions[dialect], dialectDirs[0], want))
		}
	}
	return errs
}

func validateDialect(fsys fs.FS, dialect string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dialect)
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", dialect, err)
	}

	var errs error
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", dialect, name))
			continue
		}
		if prev, ok := seen[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: duplicate version %s in %q and %q", dialect, m[1], prev, name))
			continue
		}
		seen[m[1]] = name

		body, err := fs.ReadFile(fsys, path.Join(dialect, name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: read %q: %w", dialect, name, err))
			continue
		}
		for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(body), marker) {
				errs = multierr.Append(errs, fmt.Errorf("%s: %q missing %q", dialect, name, marker))
			}
		}
	}
	if len(seen) == 0 && errs == nil {
		errs = fmt.Errorf("no %s migrations found", dialect)
	}

	versions := make([]string, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions, errs
}
