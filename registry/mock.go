package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ruteri/image-copyright-registry/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistry mocks the ImageRegistry interface
type MockRegistry struct {
	mock.Mock
}

var _ interfaces.ImageRegistry = (*MockRegistry)(nil)

func (m *MockRegistry) Register(ctx context.Context, contentHash, title, description string, caller interfaces.Identity) (uint64, error) {
	args := m.Called(ctx, contentHash, title, description, caller)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockRegistry) Update(ctx context.Context, id uint64, title, description string, caller interfaces.Identity) error {
	args := m.Called(ctx, id, title, description, caller)
	return args.Error(0)
}

func (m *MockRegistry) GetByID(ctx context.Context, id uint64) (*interfaces.ImageRecord, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*interfaces.ImageRecord)
	return rec, args.Error(1)
}

func (m *MockRegistry) GetByHash(ctx context.Context, contentHash string) (*interfaces.ImageRecord, error) {
	args := m.Called(ctx, contentHash)
	rec, _ := args.Get(0).(*interfaces.ImageRecord)
	return rec, args.Error(1)
}

func (m *MockRegistry) Exists(ctx context.Context, contentHash string) (bool, error) {
	args := m.Called(ctx, contentHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistry) ListAll(ctx context.Context) ([]interfaces.ImageRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]interfaces.ImageRecord), args.Error(1)
}

func (m *MockRegistry) ListByAuthor(ctx context.Context, author interfaces.Identity) ([]interfaces.ImageRecord, error) {
	args := m.Called(ctx, author)
	return args.Get(0).([]interfaces.ImageRecord), args.Error(1)
}

func (m *MockRegistry) Stats(ctx context.Context, caller interfaces.Identity) (interfaces.RegistryStats, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(interfaces.RegistryStats), args.Error(1)
}

func (m *MockRegistry) Subscribe(ch chan<- interfaces.RegistryEvent) event.Subscription {
	args := m.Called(ch)
	return args.Get(0).(event.Subscription)
}

func (m *MockRegistry) History(ctx context.Context, afterSeq uint64, limit int) ([]interfaces.RegistryEvent, error) {
	args := m.Called(ctx, afterSeq, limit)
	return args.Get(0).([]interfaces.RegistryEvent), args.Error(1)
}

// MockRegistryProvider mocks the RegistryProvider interface
type MockRegistryProvider struct {
	mock.Mock
}

var _ interfaces.RegistryProvider = (*MockRegistryProvider)(nil)

func (m *MockRegistryProvider) Register(ctx context.Context, contentHash, title, description string) (uint64, error) {
	args := m.Called(ctx, contentHash, title, description)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockRegistryProvider) Update(ctx context.Context, id uint64, title, description string) error {
	args := m.Called(ctx, id, title, description)
	return args.Error(0)
}

func (m *MockRegistryProvider) GetByID(ctx context.Context, id uint64) (*interfaces.ImageRecord, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*interfaces.ImageRecord)
	return rec, args.Error(1)
}

func (m *MockRegistryProvider) GetByHash(ctx context.Context, contentHash string) (*interfaces.ImageRecord, error) {
	args := m.Called(ctx, contentHash)
	rec, _ := args.Get(0).(*interfaces.ImageRecord)
	return rec, args.Error(1)
}

func (m *MockRegistryProvider) Exists(ctx context.Context, contentHash string) (bool, error) {
	args := m.Called(ctx, contentHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistryProvider) ListAll(ctx context.Context) ([]interfaces.ImageRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]interfaces.ImageRecord), args.Error(1)
}

func (m *MockRegistryProvider) ListByAuthor(ctx context.Context, author interfaces.Identity) ([]interfaces.ImageRecord, error) {
	args := m.Called(ctx, author)
	return args.Get(0).([]interfaces.ImageRecord), args.Error(1)
}

func (m *MockRegistryProvider) Stats(ctx context.Context) (interfaces.RegistryStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(interfaces.RegistryStats), args.Error(1)
}
