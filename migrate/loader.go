package migrate

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/satishbabariya/relorm/schema"
)

// LoadDir reads every *.yaml or *.yml layout definition in dir, sorted by
// file name, as a CreateTable migration named after the file.
func LoadDir(fs afero.Fs, dir string) ([]*Func, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]*Func, 0, len(names))
	for _, name := range names {
		l, err := LoadLayout(fs, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, CreateTable(strings.TrimSuffix(name, filepath.Ext(name)), l))
	}
	return out, nil
}

// LoadLayout reads one layout definition file
func LoadLayout(fs afero.Fs, path string) (*schema.Layout, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	def, err := schema.ParseDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l, err := def.Layout()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}
