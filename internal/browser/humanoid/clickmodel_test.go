package humanoid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

func setupClickTest(t *testing.T) (*Humanoid, *mockExecutor) {
	t.Helper()
	mock := newMockExecutor(t)
	return NewTestHumanoid(mock, 42), mock
}

func TestIntelligentClick(t *testing.T) {
	t.Run("press and release land inside the element", func(t *testing.T) {
		h, mock := setupClickTest(t)
		require.NoError(t, h.IntelligentClick(context.Background(), "//*[@id='x']"))

		events := mock.events()
		require.GreaterOrEqual(t, len(events), 3, "at least one move plus press and release")

		press := events[len(events)-2]
		release := events[len(events)-1]
		assert.Equal(t, schemas.MousePress, press.Type)
		assert.Equal(t, schemas.MouseRelease, release.Type)
		assert.Equal(t, int64(1), press.Buttons)
		assert.Equal(t, int64(0), release.Buttons)
		assert.Equal(t, press.X, release.X)

		for _, ev := range []schemas.MouseEventData{press, release} {
			assert.True(t, ev.X >= 100 && ev.X <= 140, "x=%f outside box", ev.X)
			assert.True(t, ev.Y >= 200 && ev.Y <= 220, "y=%f outside box", ev.Y)
		}
		// The last move event must coincide with the press point.
		assert.Equal(t, schemas.MouseMove, events[len(events)-3].Type)
		assert.InDelta(t, press.X, events[len(events)-3].X, 1e-9)
		assert.Equal(t, schemas.ButtonNone, h.currentButtonState)
	})

	t.Run("hold duration respects configured window", func(t *testing.T) {
		h, mock := setupClickTest(t)
		require.NoError(t, h.IntelligentClick(context.Background(), "//a"))
		sleeps := mock.sleeps()
		require.NotEmpty(t, sleeps)
		hold := sleeps[len(sleeps)-1]
		assert.GreaterOrEqual(t, hold, 50*time.Millisecond)
		assert.Less(t, hold, 120*time.Millisecond)
	})

	t.Run("geometry failure is wrapped", func(t *testing.T) {
		h, mock := setupClickTest(t)
		mock.MockGetElementGeometry = func(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
			return nil, errors.New("no node")
		}
		err := h.IntelligentClick(context.Background(), "//missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "geometry retrieval failed")
		assert.Empty(t, mock.events())
	})

	t.Run("zero size element is rejected", func(t *testing.T) {
		h, mock := setupClickTest(t)
		mock.MockGetElementGeometry = func(ctx context.Context, selector string) (*schemas.ElementGeometry, error) {
			return &schemas.ElementGeometry{Vertices: make([]float64, 8)}, nil
		}
		err := h.IntelligentClick(context.Background(), "//hidden")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "zero size")
	})

	t.Run("cancelled hold still releases the button", func(t *testing.T) {
		h, mock := setupClickTest(t)
		ctx, cancel := context.WithCancel(context.Background())
		mock.MockSleep = func(c context.Context, d time.Duration) error {
			// Cancel on the hold sleep, which follows the press.
			evs := mock.events()
			if len(evs) > 0 && evs[len(evs)-1].Type == schemas.MousePress {
				cancel()
				return context.Canceled
			}
			return nil
		}
		err := h.IntelligentClick(ctx, "//a")
		assert.ErrorIs(t, err, context.Canceled)
		events := mock.events()
		assert.Equal(t, schemas.MouseRelease, events[len(events)-1].Type)
		assert.Equal(t, schemas.ButtonNone, h.currentButtonState)
	})
}

func TestMovementDisabledIsDirect(t *testing.T) {
	mock := newMockExecutor(t)
	cfg := DefaultConfig()
	cfg.Enabled = false
	h := New(cfg, nil, mock)

	require.NoError(t, h.IntelligentClick(context.Background(), "//a"))
	events := mock.events()
	require.Len(t, events, 3)
	assert.Equal(t, schemas.MouseMove, events[0].Type)
	assert.Equal(t, Vector2D{X: events[0].X, Y: events[0].Y}, h.Position())
}

func TestVector2D(t *testing.T) {
	a := Vector2D{X: 3, Y: 4}
	assert.Equal(t, 5.0, a.Mag())
	assert.Equal(t, Vector2D{X: 4, Y: 6}, a.Add(Vector2D{X: 1, Y: 2}))
	assert.Equal(t, Vector2D{X: 2, Y: 2}, a.Sub(Vector2D{X: 1, Y: 2}))
	assert.Equal(t, Vector2D{X: 6, Y: 8}, a.Mul(2))
	assert.Equal(t, 5.0, Vector2D{}.Dist(a))
}
