package recognition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/attend/internal/models"
)

type fakeSource struct {
	employees []models.Employee
	err       error
}

func (f *fakeSource) ListActiveDescriptors(_ context.Context) ([]models.Employee, error) {
	return f.employees, f.err
}

func TestRegistryRefresh(t *testing.T) {
	source := &fakeSource{employees: []models.Employee{
		{EmployeeID: "emp-1", Name: "Alice", Descriptor: []float32{0.1, 0.2}},
		{EmployeeID: "emp-2", Name: "Bob", Descriptor: []float32{0.3, 0.4}},
	}}
	registry := NewRegistry(source)

	require.NoError(t, registry.Refresh(context.Background()))
	assert.Equal(t, 2, registry.Size())

	candidates := registry.ActiveDescriptors()
	require.Len(t, candidates, 2)
	assert.Equal(t, "emp-1", candidates[0].EmployeeID)
	assert.Equal(t, []float32{0.1, 0.2}, candidates[0].Descriptor)
}

func TestRegistryRefreshFailureKeepsSnapshot(t *testing.T) {
	source := &fakeSource{employees: []models.Employee{
		{EmployeeID: "emp-1", Name: "Alice", Descriptor: []float32{0.1}},
	}}
	registry := NewRegistry(source)
	require.NoError(t, registry.Refresh(context.Background()))

	source.err = errors.New("postgres down")
	require.Error(t, registry.Refresh(context.Background()))
	assert.Equal(t, 1, registry.Size())
}

func TestRegistryReadsAreCopies(t *testing.T) {
	source := &fakeSource{employees: []models.Employee{
		{EmployeeID: "emp-1", Name: "Alice", Descriptor: []float32{0.1}},
	}}
	registry := NewRegistry(source)
	require.NoError(t, registry.Refresh(context.Background()))

	candidates := registry.ActiveDescriptors()
	candidates[0].EmployeeID = "mutated"

	assert.Equal(t, "emp-1", registry.ActiveDescriptors()[0].EmployeeID)
}
