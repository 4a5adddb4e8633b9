package core

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/comalice/fsmx/internal/primitives"
)

// Registry keeps versioned machine definitions.
type Registry interface {
	// Register stores config under its computed version and returns the version.
	Register(ctx context.Context, config *primitives.MachineConfig) (string, error)

	// Latest returns the most recently registered definition for machineID.
	Latest(ctx context.Context, machineID string) (*primitives.MachineConfig, error)

	// Version returns the definition registered under version.
	Version(ctx context.Context, machineID, version string) (*primitives.MachineConfig, error)

	// ListVersions returns versions for machineID, newest first.
	ListVersions(ctx context.Context, machineID string) ([]string, error)

	// ListMachines returns all machine IDs, sorted.
	ListMachines(ctx context.Context) ([]string, error)
}

var (
	ErrNotFound = errors.New("version or machine not found")
	ErrExists   = errors.New("version already exists")
)

// MemoryRegistry is an in-process Registry. Stored configs are pinned to their
// version; callers get the pointer that was registered.
type MemoryRegistry struct {
	mu       sync.RWMutex
	versions map[string][]string
	configs  map[string]map[string]*primitives.MachineConfig
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		versions: make(map[string][]string),
		configs:  make(map[string]map[string]*primitives.MachineConfig),
	}
}

// Register validates config, fixes its Version and stores it.
func (r *MemoryRegistry) Register(_ context.Context, config *primitives.MachineConfig) (string, error) {
	if err := config.Validate(); err != nil {
		return "", err
	}
	version := primitives.ComputeVersion(config)

	r.mu.Lock()
	defer r.mu.Unlock()

	byVersion, ok := r.configs[config.ID]
	if !ok {
		byVersion = make(map[string]*primitives.MachineConfig)
		r.configs[config.ID] = byVersion
	}
	if _, exists := byVersion[version]; exists {
		return "", ErrExists
	}
	config.Version = version
	byVersion[version] = config
	r.versions[config.ID] = append(r.versions[config.ID], version)
	return version, nil
}

// Latest implements Registry.
func (r *MemoryRegistry) Latest(_ context.Context, machineID string) (*primitives.MachineConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[machineID]
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return r.configs[machineID][versions[len(versions)-1]], nil
}

// Version implements Registry.
func (r *MemoryRegistry) Version(_ context.Context, machineID, version string) (*primitives.MachineConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, ok := r.configs[machineID][version]
	if !ok {
		return nil, ErrNotFound
	}
	return config, nil
}

// ListVersions implements Registry.
func (r *MemoryRegistry) ListVersions(_ context.Context, machineID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[machineID]
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	out := make([]string, len(versions))
	for i, v := range versions {
		out[len(versions)-1-i] = v
	}
	return out, nil
}

// ListMachines implements Registry.
func (r *MemoryRegistry) ListMachines(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.versions))
	for id := range r.versions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
