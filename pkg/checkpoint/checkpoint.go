// Package checkpoint persists named configuration snapshots as JSON files.
package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rzbill/gcu/pkg/log"
	"github.com/rzbill/gcu/pkg/types"
	"github.com/rzbill/gcu/pkg/utils"
)

// DefaultDir is where checkpoints live unless configured otherwise.
const DefaultDir = "/etc/sonic/checkpoints"

// fileSuffix is appended to the checkpoint name to form its file name.
const fileSuffix = ".cp.json"

// Manager stores checkpoints in a directory, one file per checkpoint.
type Manager struct {
	dir    string
	logger log.Logger
}

// NewManager creates a manager for dir. The directory is created on the
// first save.
func NewManager(dir string, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	if dir == "" {
		dir = DefaultDir
	}
	return &Manager{dir: dir, logger: logger.WithComponent("checkpoint")}
}

// Dir returns the checkpoint directory.
func (m *Manager) Dir() string {
	return m.dir
}

// ValidateName checks that name is usable as a checkpoint name.
func ValidateName(name string) error {
	if err := utils.ValidateFileName(name); err != nil {
		return types.NewCheckpointIOError(err, "invalid checkpoint name")
	}
	return nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+fileSuffix)
}

// Save writes the snapshot under name, replacing an existing checkpoint of
// the same name. A snapshot holding only the default namespace is written
// as a plain ConfigDB document; otherwise the file is keyed by namespace name.
func (m *Manager) Save(name string, snapshot map[string]types.Document) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	var content any
	if len(snapshot) == 1 {
		if doc, ok := snapshot[""]; ok {
			content = doc.ToJSON()
		}
	}
	if content == nil {
		byName := make(map[string]any, len(snapshot))
		for ns, doc := range snapshot {
			byName[types.NamespaceName(ns)] = doc.ToJSON()
		}
		content = byName
	}

	data, err := utils.IndentJSON(content)
	if err != nil {
		return types.NewCheckpointIOError(err, "failed to encode checkpoint %s", name)
	}
	if err := utils.WriteFileAtomic(m.path(name), data, 0644); err != nil {
		return types.NewCheckpointIOError(err, "failed to write checkpoint %s", name)
	}

	m.logger.Debug("Checkpoint saved", log.Str("checkpoint", name), log.Str("path", m.path(name)))
	return nil
}

// Get loads a checkpoint together with its metadata.
func (m *Manager) Get(name string) (*types.Checkpoint, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	path := m.path(name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.NewCheckpointNotFoundError(name)
		}
		return nil, types.NewCheckpointIOError(err, "failed to stat checkpoint %s", name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewCheckpointIOError(err, "failed to read checkpoint %s", name)
	}
	raw, err := utils.DecodeJSON(data)
	if err != nil {
		return nil, types.NewCheckpointIOError(err, "checkpoint %s is corrupt", name)
	}
	snapshot, err := decodeSnapshot(raw)
	if err != nil {
		return nil, types.NewCheckpointIOError(err, "checkpoint %s is corrupt", name)
	}
	return &types.Checkpoint{Name: name, Snapshot: snapshot, CreatedAt: info.ModTime()}, nil
}

// decodeSnapshot recognizes a multi-namespace file by its top-level keys:
// every one of them must be a namespace name.
func decodeSnapshot(raw any) (map[string]types.Document, error) {
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("checkpoint must hold a JSON object")
	}
	multi := len(root) > 0
	for k := range root {
		if !types.IsNamespaceName(k) {
			multi = false
			break
		}
	}
	if !multi {
		doc, err := types.DocumentFromJSON(root)
		if err != nil {
			return nil, err
		}
		return map[string]types.Document{"": doc}, nil
	}
	out := make(map[string]types.Document, len(root))
	for name, v := range root {
		doc, err := types.DocumentFromJSON(v)
		if err != nil {
			return nil, fmt.Errorf("namespace %s: %w", name, err)
		}
		out[types.NamespaceFromName(name)] = doc
	}
	return out, nil
}

// Exists reports whether a checkpoint of that name is stored.
func (m *Manager) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	return utils.FileExists(m.path(name))
}

// Delete removes a checkpoint.
func (m *Manager) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(m.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.NewCheckpointNotFoundError(name)
		}
		return types.NewCheckpointIOError(err, "failed to delete checkpoint %s", name)
	}
	m.logger.Debug("Checkpoint deleted", log.Str("checkpoint", name))
	return nil
}

// List returns the stored checkpoint names in sorted order. A missing
// directory holds no checkpoints.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, types.NewCheckpointIOError(err, "failed to list checkpoints in %s", m.dir)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), fileSuffix)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
