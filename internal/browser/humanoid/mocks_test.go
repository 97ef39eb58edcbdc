// FILE: ./internal/browser/humanoid/mocks_test.go
package humanoid

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

// mockExecutor implements the Executor interface for testing.
type mockExecutor struct {
	t                *testing.T
	dispatchedEvents []schemas.MouseEventData
	sentKeys         []string
	structuredKeys   []schemas.KeyEventData
	sleepDurations   []time.Duration
	returnErr        error
	mu               sync.Mutex

	// Function overrides. Mocks MUST NOT call back into the Humanoid: public
	// Humanoid methods hold h.mu while calling the executor.
	MockGetElementGeometry    func(ctx context.Context, selector string) (*schemas.ElementGeometry, error)
	MockSleep                 func(ctx context.Context, d time.Duration) error
	MockDispatchMouseEvent    func(ctx context.Context, data schemas.MouseEventData) error
	MockSendKeys              func(ctx context.Context, keys string) error
	MockDispatchStructuredKey func(ctx context.Context, data schemas.KeyEventData) error
}

func newMockExecutor(t *testing.T) *mockExecutor {
	return &mockExecutor{t: t}
}

func (m *mockExecutor) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	if m.MockDispatchMouseEvent != nil {
		return m.MockDispatchMouseEvent(ctx, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Record first so cleanup releases are visible even after failures.
	m.dispatchedEvents = append(m.dispatchedEvents, data)
	if m.returnErr != nil {
		return m.returnErr
	}
	return ctx.Err()
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if m.MockSleep != nil {
		return m.MockSleep(ctx, d)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleepDurations = append(m.sleepDurations, d)
	return nil
}

func (m *mockExecutor) SendKeys(ctx context.Context, keys string) error {
	if m.MockSendKeys != nil {
		return m.MockSendKeys(ctx, keys)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentKeys = append(m.sentKeys, keys)
	return m.returnErr
}

func (m *mockExecutor) DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error {
	if m.MockDispatchStructuredKey != nil {
		return m.MockDispatchStructuredKey(ctx, data)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.returnErr != nil {
		return m.returnErr
	}
	m.structuredKeys = append(m.structuredKeys, data)
	return nil
}

// GetElementGeometry defaults to a 40x20 box at (100,200).
func (m *mockExecutor) GetElementGeometry(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
	if m.MockGetElementGeometry != nil {
		return m.MockGetElementGeometry(ctx, selector)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &schemas.ElementGeometry{
		Vertices: []float64{100, 200, 140, 200, 140, 220, 100, 220},
		Width:    40,
		Height:   20,
		TagName:  "DIV",
	}, nil
}

func (m *mockExecutor) events() []schemas.MouseEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schemas.MouseEventData(nil), m.dispatchedEvents...)
}

func (m *mockExecutor) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sentKeys...)
}

func (m *mockExecutor) sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.sleepDurations...)
}

func (m *mockExecutor) structured() []schemas.KeyEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schemas.KeyEventData(nil), m.structuredKeys...)
}
