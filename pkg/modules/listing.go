package modules

import (
	"errors"
	"io/fs"
	"path"
)

// Listing loads modules from a file system. Loaded values are the raw file
// contents; with DontLoad only existence is recorded (the view case).
type Listing struct {
	FS fs.FS
}

// Optional implements Loader.
func (l Listing) Optional(o Options) (map[string]any, error) {
	dir := cleanDir(o.Dirname)
	st, err := fs.Stat(l.FS, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, ErrNotDirectory
	}

	var rels []string
	err = fs.WalkDir(l.FS, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := p
		if dir != "." {
			rel = p[len(dir)+1:]
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collect(rels, o, func(rel string) (any, error) {
		return fs.ReadFile(l.FS, path.Join(dir, rel))
	})
}
