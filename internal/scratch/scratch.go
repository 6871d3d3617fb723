// Package scratch manages the temporary-file namespace used during run
// generation and merging: collision-free names derived from an input path
// plus a local index, or from a round and group index, all rooted under a
// dedicated scratch directory kept disjoint from the input directory.
package scratch

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"

	"github.com/gosort/extsort/internal/fs"
)

// Namespace allocates temp-file paths rooted at Dir and tracks every path it
// has handed out, so a failed job can best-effort clean up its own litter
// without a directory walk.
type Namespace struct {
	FS  fs.FileSystem
	Dir string

	created []string
}

// NewNamespace creates a scratch namespace rooted at dir. dir is created if
// it does not already exist.
func NewNamespace(filesystem fs.FileSystem, dir string) (*Namespace, error) {
	if filesystem == nil {
		filesystem = fs.Default
	}
	if err := filesystem.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scratch: create dir %s: %w", dir, err)
	}
	return &Namespace{FS: filesystem, Dir: dir}, nil
}

// RunPath names a sorted run produced from inputPath's localIndex-th buffer
// fill during run generation. Names incorporate the sanitized input path
// plus a hash of the full input path, so inputs whose sanitized forms
// coincide (sanitize maps several characters to '_' and keeps only the last
// 80) still get distinct names.
func (n *Namespace) RunPath(inputPath string, localIndex int) string {
	base := sanitize(inputPath)
	h := fnv.New64a()
	_, _ = h.Write([]byte(inputPath))
	name := fmt.Sprintf("run.%s.%016x.%06d.tmp", base, h.Sum64(), localIndex)
	p := filepath.Join(n.Dir, name)
	n.created = append(n.created, p)
	return p
}

// MergePath names the intermediate output of groupIndex's merge within
// round.
func (n *Namespace) MergePath(round, groupIndex int) string {
	name := fmt.Sprintf("merge.r%04d.g%06d.tmp", round, groupIndex)
	p := filepath.Join(n.Dir, name)
	n.created = append(n.created, p)
	return p
}

// Forget removes path from the set of paths this namespace would clean up,
// used once a path has been consumed and deleted by its consumer so cleanup
// doesn't attempt to remove it twice.
func (n *Namespace) Forget(path string) {
	for i, p := range n.created {
		if p == path {
			n.created = append(n.created[:i], n.created[i+1:]...)
			return
		}
	}
}

// CleanupAll best-effort removes every path this namespace has ever handed
// out that hasn't been Forget-ten. Errors are swallowed: cleanup is a
// courtesy, not a correctness requirement.
func (n *Namespace) CleanupAll() {
	for _, p := range n.created {
		_ = n.FS.Remove(p)
	}
	n.created = nil
}

// Overlaps reports whether dir is equal to or a descendant of other —
// used to reject a scratch directory configured inside the input directory.
func Overlaps(dir, other string) bool {
	dir = filepath.Clean(dir)
	other = filepath.Clean(other)
	if dir == other {
		return true
	}
	rel, err := filepath.Rel(other, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func sanitize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.ReplaceAll(p, "/", "_")
	p = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_' || r == '.' || r == '-':
			return r
		default:
			return '_'
		}
	}, p)
	if len(p) > 80 {
		p = p[len(p)-80:]
	}
	return p
}
