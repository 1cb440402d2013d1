package registry

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"

	serrors "github.com/conneroisu/stylesync/internal/errors"
	"github.com/conneroisu/stylesync/internal/styletree"
)

// IsStyleFile reports whether path names a YAML style file.
func IsStyleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// ConsumerName derives a consumer name from a style file path.
func ConsumerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FindStyleFiles lists the style files under roots in natural order. A root
// may itself be a style file.
func FindStyleFiles(roots ...string) ([]string, error) {
	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if IsStyleFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, serrors.WrapIO(err, serrors.ErrCodeFileNotFound, "cannot scan style files")
		}
	}
	sort.Sort(natural.StringSlice(files))
	return files, nil
}

// LoadFile reads path and mounts (or updates) its consumer. The consumer
// records the absolute path, which is what file events carry.
func (r *ConsumerRegistry) LoadFile(path string) (*Consumer, error) {
	path = absPath(path)
	tree, err := styletree.ReadFile(path)
	if err != nil {
		return nil, serrors.WrapStyle(err, path)
	}
	return r.MountFile(ConsumerName(path), path, tree)
}

// UnloadFile unmounts the consumer loaded from path. It reports whether a
// consumer was mounted from that file.
func (r *ConsumerRegistry) UnloadFile(path string) bool {
	path = absPath(path)
	r.mutex.RLock()
	var name string
	for _, c := range r.consumers {
		if c.FilePath == path {
			name = c.Name
			break
		}
	}
	r.mutex.RUnlock()

	if name == "" {
		return false
	}
	return r.Unmount(name) == nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
