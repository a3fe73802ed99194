package adapter

import (
	"context"

	"github.com/Akshay-i95/quick-order-app/internal/model"
)

// MockCartStore implements CartStore for testing.
// Each method can be configured via function fields.
type MockCartStore struct {
	FetchFunc      func(ctx context.Context) (*model.CartSnapshot, error)
	UpdateLineFunc func(ctx context.Context, id model.VariantID, quantity int) (*model.CartSnapshot, error)
	AddLineFunc    func(ctx context.Context, id model.VariantID, quantity int) (*model.CartSnapshot, error)
}

// Fetch calls the configured FetchFunc or returns an empty cart.
func (m *MockCartStore) Fetch(ctx context.Context) (*model.CartSnapshot, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return &model.CartSnapshot{}, nil
}

// UpdateLine calls the configured UpdateLineFunc or returns an error.
func (m *MockCartStore) UpdateLine(ctx context.Context, id model.VariantID, quantity int) (*model.CartSnapshot, error) {
	if m.UpdateLineFunc != nil {
		return m.UpdateLineFunc(ctx, id, quantity)
	}
	return nil, model.NewInternalError(nil)
}

// AddLine calls the configured AddLineFunc or returns an error.
func (m *MockCartStore) AddLine(ctx context.Context, id model.VariantID, quantity int) (*model.CartSnapshot, error) {
	if m.AddLineFunc != nil {
		return m.AddLineFunc(ctx, id, quantity)
	}
	return nil, model.NewInternalError(nil)
}

// MockSnapshotStore implements SnapshotStore for testing.
type MockSnapshotStore struct {
	LoadFunc func(ctx context.Context, customerID string) (*model.PersistedSnapshot, error)
	SaveFunc func(ctx context.Context, customerID string, snap *model.PersistedSnapshot) error
}

// Load calls the configured LoadFunc or reports no saved snapshot.
func (m *MockSnapshotStore) Load(ctx context.Context, customerID string) (*model.PersistedSnapshot, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, customerID)
	}
	return nil, model.NewNotFoundError("snapshot")
}

// Save calls the configured SaveFunc or succeeds silently.
func (m *MockSnapshotStore) Save(ctx context.Context, customerID string, snap *model.PersistedSnapshot) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, customerID, snap)
	}
	return nil
}

// Verify mocks implement the interfaces at compile time.
var (
	_ CartStore     = (*MockCartStore)(nil)
	_ SnapshotStore = (*MockSnapshotStore)(nil)
)
