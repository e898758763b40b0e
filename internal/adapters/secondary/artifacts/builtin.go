package artifacts

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns the artifacts compiled into the binary.
func Builtin() ([]*Artifact, error) {
	names, err := fs.Glob(builtinFS, "builtin/*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	arts := make([]*Artifact, 0, len(names))
	for _, n := range names {
		f, err := builtinFS.Open(n)
		if err != nil {
			return nil, fmt.Errorf("open builtin %s: %w", n, err)
		}
		a, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", path.Base(n), err)
		}
		arts = append(arts, a)
	}
	return arts, nil
}
