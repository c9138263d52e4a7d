package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/montage-api/internal/generation"
)

// MockProvider implements generation.Provider for testing. Without custom
// functions it behaves like a small in-memory provider: Submit registers a
// PENDING task and GetTask returns whatever SetTask last stored.
type MockProvider struct {
	// SubmitFn allows test cases to mock the Submit behavior
	SubmitFn func(ctx context.Context, req generation.SubmitRequest) (string, error)

	// GetTaskFn allows test cases to mock the GetTask behavior
	GetTaskFn func(ctx context.Context, id string) (*generation.ProviderTask, error)

	mu    sync.Mutex
	tasks map[string]generation.ProviderTask

	// Call tracking for verification
	SubmitCalls struct {
		mu       sync.Mutex
		Count    int
		Requests []generation.SubmitRequest
	}
	GetTaskCalls struct {
		mu    sync.Mutex
		Count int
		IDs   []string
	}
}

// NewMockProvider creates an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{tasks: make(map[string]generation.ProviderTask)}
}

// NewMockProviderWithError creates a MockProvider whose Submit always fails with err.
func NewMockProviderWithError(err error) *MockProvider {
	m := NewMockProvider()
	m.SubmitFn = func(context.Context, generation.SubmitRequest) (string, error) {
		return "", err
	}
	return m
}

// Submit implements generation.Provider.
func (m *MockProvider) Submit(ctx context.Context, req generation.SubmitRequest) (string, error) {
	m.SubmitCalls.mu.Lock()
	m.SubmitCalls.Count++
	m.SubmitCalls.Requests = append(m.SubmitCalls.Requests, req)
	m.SubmitCalls.mu.Unlock()

	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, req)
	}

	id := uuid.NewString()
	m.SetTask(generation.ProviderTask{ID: id, Status: generation.ProviderStatusPending})
	return id, nil
}

// GetTask implements generation.Provider.
func (m *MockProvider) GetTask(ctx context.Context, id string) (*generation.ProviderTask, error) {
	m.GetTaskCalls.mu.Lock()
	m.GetTaskCalls.Count++
	m.GetTaskCalls.IDs = append(m.GetTaskCalls.IDs, id)
	m.GetTaskCalls.mu.Unlock()

	if m.GetTaskFn != nil {
		return m.GetTaskFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	pt, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("mock provider: task %s not found", id)
	}
	return &pt, nil
}

// SetTask replaces the provider-side state of a task.
func (m *MockProvider) SetTask(pt generation.ProviderTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasks == nil {
		m.tasks = make(map[string]generation.ProviderTask)
	}
	m.tasks[pt.ID] = pt
}

// SubmitCount returns how many times Submit was called.
func (m *MockProvider) SubmitCount() int {
	m.SubmitCalls.mu.Lock()
	defer m.SubmitCalls.mu.Unlock()
	return m.SubmitCalls.Count
}

// GetTaskCount returns how many times GetTask was called.
func (m *MockProvider) GetTaskCount() int {
	m.GetTaskCalls.mu.Lock()
	defer m.GetTaskCalls.mu.Unlock()
	return m.GetTaskCalls.Count
}

// LastSubmit returns the most recent submit request.
func (m *MockProvider) LastSubmit() (generation.SubmitRequest, bool) {
	m.SubmitCalls.mu.Lock()
	defer m.SubmitCalls.mu.Unlock()
	if len(m.SubmitCalls.Requests) == 0 {
		return generation.SubmitRequest{}, false
	}
	return m.SubmitCalls.Requests[len(m.SubmitCalls.Requests)-1], true
}
