// Package schema loads the SONiC YANG models and answers the questions the
// updater asks about them: which tables exist, how a table maps onto YANG
// lists and containers, and which entries reference which.
package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/rzbill/gcu/pkg/log"
)

// Schema is the set of tables described by the loaded YANG modules.
type Schema struct {
	// revisions maps each module name to its latest revision date.
	revisions map[string]string
	tables    map[string]*Table
	refs      map[string][]*Reference
	referrers map[string][]string
}

// LoadDir parses every .yang file in dir.
func LoadDir(dir string, logger log.Logger) (*Schema, error) {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	logger = logger.WithComponent("schema")
	now := time.Now()

	files, err := filepath.Glob(filepath.Join(dir, "*.yang"))
	if err != nil {
		return nil, fmt.Errorf("failed to list yang files in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no yang files found in %s", dir)
	}
	sort.Strings(files)

	sources := make(map[string]string, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read yang file: %w", err)
		}
		sources[f] = string(data)
	}

	s, err := Parse(sources)
	if err != nil {
		return nil, err
	}
	logger.Debug("Schema loaded",
		log.Str("dir", dir),
		log.Int("modules", len(files)),
		log.Int("tables", len(s.tables)),
		log.Duration("took", time.Since(now)))
	return s, nil
}

// Parse builds a schema from YANG sources keyed by file name.
func Parse(sources map[string]string) (*Schema, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	ms := yang.NewModules()
	for _, name := range names {
		if err := ms.Parse(sources[name], name); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}
	if errs := ms.Process(); len(errs) > 0 {
		return nil, fmt.Errorf("failed to process yang modules: %w", errors.Join(errs...))
	}

	// ms.Modules holds every module twice, by name and by name@revision
	modules := make(map[string]*yang.Module)
	for _, m := range ms.Modules {
		modules[m.Name] = m
	}
	moduleNames := make([]string, 0, len(modules))
	for name := range modules {
		moduleNames = append(moduleNames, name)
	}
	sort.Strings(moduleNames)

	s := &Schema{
		revisions: make(map[string]string, len(moduleNames)),
		tables:    make(map[string]*Table),
		refs:      make(map[string][]*Reference),
		referrers: make(map[string][]string),
	}
	for _, name := range moduleNames {
		s.revisions[name] = modules[name].Current()
		if err := s.addModule(name, yang.ToEntry(modules[name])); err != nil {
			return nil, err
		}
	}
	if err := s.buildReferences(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) addModule(module string, root *yang.Entry) error {
	for _, top := range sortedChildren(root) {
		if !top.IsContainer() {
			continue
		}
		for _, tc := range sortedChildren(top) {
			if !tc.IsContainer() {
				continue
			}
			if prev, ok := s.tables[tc.Name]; ok {
				return fmt.Errorf("table %s is defined by both %s and %s", tc.Name, prev.Module, module)
			}
			s.tables[tc.Name] = newTable(module, top.Name, tc)
		}
	}
	return nil
}

// Revisions returns the loaded modules by name with their latest revision
// date, or "" for a module without revision statements.
func (s *Schema) Revisions() map[string]string {
	out := make(map[string]string, len(s.revisions))
	for name, rev := range s.revisions {
		out[name] = rev
	}
	return out
}

// Tables returns the names of all schema tables in sorted order.
func (s *Schema) Tables() []string {
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Table returns the schema of a ConfigDB table.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// HasTable reports whether a YANG module describes the table.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.tables[name]
	return ok
}

func sortedChildren(e *yang.Entry) []*yang.Entry {
	names := make([]string, 0, len(e.Dir))
	for name := range e.Dir {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*yang.Entry, 0, len(names))
	for _, name := range names {
		out = append(out, e.Dir[name])
	}
	return out
}

// stripPrefix removes a module prefix from a schema node name.
func stripPrefix(name string) string {
	if i := strings.Index(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}
