package production

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/comalice/fsmx/internal/core"
	"github.com/comalice/fsmx/internal/primitives"
)

// Format selects the encoding of stored definitions.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format matching path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported definition file %q", path)
	}
}

// Encode serializes config in format.
func Encode(config *primitives.MachineConfig, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("yaml marshal: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json marshal: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Decode parses a definition, fills in state IDs from their keys and
// validates it.
func Decode(data []byte, format Format) (*primitives.MachineConfig, error) {
	var config primitives.MachineConfig
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	config.Normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation after load: %w", err)
	}
	return &config, nil
}

// LoadFile reads a single definition, choosing the format by extension.
func LoadFile(path string) (*primitives.MachineConfig, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	config, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// FileStore is a core.Registry keeping one file per definition version under
// dir/<machineID>/<seq>-<version>.<format>. Only definitions are stored; a
// machine's current state is never persisted.
type FileStore struct {
	dir    string
	format Format
	mu     sync.Mutex
}

var _ core.Registry = (*FileStore)(nil)

// NewFileStore creates a FileStore, ensuring the directory exists.
func NewFileStore(dir string, format Format) (*FileStore, error) {
	if format != FormatYAML && format != FormatJSON {
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, format: format}, nil
}

// Register implements core.Registry.
func (s *FileStore) Register(_ context.Context, config *primitives.MachineConfig) (string, error) {
	if err := config.Validate(); err != nil {
		return "", err
	}
	version := primitives.ComputeVersion(config)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.entries(config.ID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return "", err
	}
	for _, e := range entries {
		if e.version == version {
			return "", core.ErrExists
		}
	}

	pinned := *config
	pinned.Version = version
	data, err := Encode(&pinned, s.format)
	if err != nil {
		return "", err
	}

	machineDir := filepath.Join(s.dir, config.ID)
	if err := os.MkdirAll(machineDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", machineDir, err)
	}
	fn := filepath.Join(machineDir, fmt.Sprintf("%06d-%s.%s", len(entries)+1, version, s.format))
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", fn, err)
	}

	config.Version = version
	return version, nil
}

// Latest implements core.Registry.
func (s *FileStore) Latest(_ context.Context, machineID string) (*primitives.MachineConfig, error) {
	entries, err := s.entries(machineID)
	if err != nil {
		return nil, err
	}
	return s.load(entries[0].path)
}

// Version implements core.Registry.
func (s *FileStore) Version(_ context.Context, machineID, version string) (*primitives.MachineConfig, error) {
	entries, err := s.entries(machineID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.version == version {
			return s.load(e.path)
		}
	}
	return nil, fmt.Errorf("machine %q version %q: %w", machineID, version, core.ErrNotFound)
}

// ListVersions implements core.Registry.
func (s *FileStore) ListVersions(_ context.Context, machineID string) ([]string, error) {
	entries, err := s.entries(machineID)
	if err != nil {
		return nil, err
	}
	versions := make([]string, len(entries))
	for i, e := range entries {
		versions[i] = e.version
	}
	return versions, nil
}

// ListMachines implements core.Registry.
func (s *FileStore) ListMachines(_ context.Context) ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.dir, err)
	}
	var ids []string
	for _, d := range dirEntries {
		if d.IsDir() {
			ids = append(ids, d.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type storedVersion struct {
	seq     int
	version string
	path    string
}

// entries lists the stored versions of machineID, newest first.
func (s *FileStore) entries(machineID string) ([]storedVersion, error) {
	machineDir := filepath.Join(s.dir, machineID)
	dirEntries, err := os.ReadDir(machineDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("machine %q: %w", machineID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", machineDir, err)
	}

	ext := "." + string(s.format)
	var out []storedVersion
	for _, d := range dirEntries {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		seqStr, version, ok := strings.Cut(strings.TrimSuffix(name, ext), "-")
		if !ok {
			continue
		}
		seq, err := strconv.Atoi(seqStr)
		if err != nil {
			continue
		}
		out = append(out, storedVersion{seq: seq, version: version, path: filepath.Join(machineDir, name)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("machine %q: %w", machineID, core.ErrNotFound)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].seq > out[j].seq })
	return out, nil
}

func (s *FileStore) load(path string) (*primitives.MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, s.format)
}
