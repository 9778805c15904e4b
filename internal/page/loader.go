package page

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/gridform/internal/schema"
)

// Parse decodes one page definition. Unknown top-level keys are rejected.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Compile expands the definition's columns. Combo indexes stay unresolved
// unless options is non-nil.
func Compile(def *Definition, options schema.OptionsProvider) *Page {
	e := &schema.Expander{Options: options}

	procs := make(map[string]Procedure, len(def.Procedures))
	for name, proc := range def.Procedures {
		procs[name] = proc
	}

	return &Page{
		Name:        def.Name,
		Group:       def.Group,
		Title:       def.Title,
		Procedures:  procs,
		Combos:      append([]string(nil), def.Combos...),
		Columns:     e.Expand(def.Columns),
		SchemaCodes: def.SchemaCodes(),
	}
}

// LoadFile parses and compiles a single page file.
func LoadFile(path string) (*Page, error) {
	return LoadFileOptions(path, nil)
}

// LoadFileOptions is LoadFile with combo indexes resolved against options.
func LoadFileOptions(path string, options schema.OptionsProvider) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return Compile(def, options), nil
}

// LoadDir compiles every *.yaml and *.yml file in dir, in name order.
// It stops at the first invalid page.
func LoadDir(dir string) ([]*Page, error) {
	return LoadDirOptions(dir, nil)
}

// LoadDirOptions is LoadDir with combo indexes resolved against options.
func LoadDirOptions(dir string, options schema.OptionsProvider) ([]*Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read page directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	pages := make([]*Page, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		p, err := LoadFileOptions(f, options)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("page %q defined in both %s and %s", p.Name, prev, f)
		}
		seen[p.Name] = f
		pages = append(pages, p)
	}
	return pages, nil
}

// RegisterDir loads dir and registers every page. It returns the number of
// pages registered.
func RegisterDir(dir string) (int, error) {
	pages, err := LoadDir(dir)
	if err != nil {
		return 0, err
	}
	for _, p := range pages {
		if _, exists := Get(p.Name); exists {
			return 0, fmt.Errorf("page already registered: %s", p.Name)
		}
	}
	for _, p := range pages {
		Register(p)
		slog.Debug("page registered", "page", p.Name, "columns", len(p.Columns), "functions", p.FunctionNames())
	}
	return len(pages), nil
}
