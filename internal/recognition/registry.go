package recognition

import (
	"context"
	"fmt"
	"sync"

	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/observability"
)

// DescriptorSource is the storage surface the registry loads from.
type DescriptorSource interface {
	ListActiveDescriptors(ctx context.Context) ([]models.Employee, error)
}

// Registry holds an in-memory snapshot of active reference descriptors.
// Reads hand out a copy, so a match in progress never observes a
// concurrent enrollment mid-scan. Refresh after every enrollment or
// deactivation keeps it current.
type Registry struct {
	mu         sync.RWMutex
	source     DescriptorSource
	candidates []Candidate
}

func NewRegistry(source DescriptorSource) *Registry {
	return &Registry{source: source}
}

// Refresh reloads the snapshot from storage.
func (r *Registry) Refresh(ctx context.Context) error {
	employees, err := r.source.ListActiveDescriptors(ctx)
	if err != nil {
		return fmt.Errorf("refresh descriptor registry: %w", err)
	}

	candidates := make([]Candidate, 0, len(employees))
	for _, e := range employees {
		candidates = append(candidates, Candidate{
			EmployeeID: e.EmployeeID,
			Name:       e.Name,
			Descriptor: e.Descriptor,
		})
	}

	r.mu.Lock()
	r.candidates = candidates
	r.mu.Unlock()

	observability.RegistrySize.Set(float64(len(candidates)))
	return nil
}

// ActiveDescriptors returns a snapshot of the current candidate set.
func (r *Registry) ActiveDescriptors() []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Candidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Size returns the number of active descriptors currently loaded.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.candidates)
}
