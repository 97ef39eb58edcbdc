package humanoid

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
)

func setupKeyboardTest(t *testing.T) (*Humanoid, *mockExecutor) {
	t.Helper()
	mock := newMockExecutor(t)
	return NewTestHumanoid(mock, 7), mock
}

func TestType(t *testing.T) {
	t.Run("sends every character exactly once in order", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		text := "demo@example.com"
		require.NoError(t, h.Type(context.Background(), text, nil))
		assert.Equal(t, text, strings.Join(mock.keys(), ""))
		assert.Len(t, mock.keys(), len(text))
		assert.Len(t, mock.sleeps(), len(text), "one inter-key pause per character")
	})

	t.Run("mean delay and jitter follow the speed preset", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		opts := &TypeOptions{MeanDelay: 100 * time.Millisecond, Jitter: 20 * time.Millisecond}
		require.NoError(t, h.Type(context.Background(), "xqzvkj", opts))

		for _, d := range mock.sleeps() {
			// No common n-grams in the input, so each pause is mean +- 0.25 sigma + jitter.
			assert.Greater(t, d, 70*time.Millisecond)
			assert.Less(t, d, 150*time.Millisecond)
		}
	})

	t.Run("common n-grams are typed faster", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		h.cfg.KeyPauseStdDev = 0
		require.NoError(t, h.Type(context.Background(), "xth", &TypeOptions{MeanDelay: 50 * time.Millisecond}))
		sleeps := mock.sleeps()
		require.Len(t, sleeps, 3)
		assert.Equal(t, 50*time.Millisecond, sleeps[0])
		assert.Equal(t, 50*time.Millisecond, sleeps[1])
		assert.Equal(t, 35*time.Millisecond, sleeps[2], "digraph 'th' uses the 0.7 factor")
	})

	t.Run("unicode text is sent rune by rune", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		require.NoError(t, h.Type(context.Background(), "Año", nil))
		assert.Equal(t, []string{"A", "ñ", "o"}, mock.keys())
	})

	t.Run("send failure aborts", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		boom := errors.New("detached")
		mock.MockSendKeys = func(ctx context.Context, keys string) error { return boom }
		err := h.Type(context.Background(), "abc", nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context stops typing", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := h.Type(ctx, "abc", nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, mock.keys())
	})
}

func TestParseKeyExpression(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		want       schemas.KeyEventData
		wantErr    bool
	}{
		{"Simple Ctrl+A", "ctrl+a", schemas.KeyEventData{Key: "a", Modifiers: schemas.ModCtrl}, false},
		{"Meta alias", "cmd+v", schemas.KeyEventData{Key: "v", Modifiers: schemas.ModMeta}, false},
		{"Shift uppercases", "ctrl+shift+t", schemas.KeyEventData{Key: "T", Modifiers: schemas.ModCtrl | schemas.ModShift}, false},
		{"Implicit shift", "ctrl+A", schemas.KeyEventData{Key: "A", Modifiers: schemas.ModCtrl | schemas.ModShift}, false},
		{"Spacing", " ctrl +  a ", schemas.KeyEventData{Key: "a", Modifiers: schemas.ModCtrl}, false},
		{"Named key", "ctrl+Enter", schemas.KeyEventData{Key: "Enter", Modifiers: schemas.ModCtrl}, false},
		{"Shift with digit", "shift+1", schemas.KeyEventData{Key: "1", Modifiers: schemas.ModShift}, false},
		{"No key", "ctrl+shift", schemas.KeyEventData{}, true},
		{"Empty", "", schemas.KeyEventData{}, true},
		{"Multiple keys", "ctrl+a+b", schemas.KeyEventData{}, true},
		{"Invalid separator", "ctrl++a", schemas.KeyEventData{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKeyExpression(tt.expression)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShortcutAndPressKey(t *testing.T) {
	t.Run("shortcut dispatches one structured key and holds", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		require.NoError(t, h.Shortcut(context.Background(), "ctrl+a"))
		assert.Equal(t, []schemas.KeyEventData{{Key: "a", Modifiers: schemas.ModCtrl}}, mock.structured())
		sleeps := mock.sleeps()
		require.Len(t, sleeps, 1)
		assert.Equal(t, 40*time.Millisecond, sleeps[0])
	})

	t.Run("parse error", func(t *testing.T) {
		h, _ := setupKeyboardTest(t)
		err := h.Shortcut(context.Background(), "ctrl+a+b")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse shortcut expression")
	})

	t.Run("dispatch error", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		boom := errors.New("dispatch failed")
		mock.MockDispatchStructuredKey = func(ctx context.Context, data schemas.KeyEventData) error { return boom }
		err := h.Shortcut(context.Background(), "ctrl+a")
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "failed to dispatch shortcut")

		err = h.PressKey(context.Background(), KeyEscape)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("press key", func(t *testing.T) {
		h, mock := setupKeyboardTest(t)
		require.NoError(t, h.PressKey(context.Background(), KeyBackspace))
		assert.Equal(t, []schemas.KeyEventData{{Key: "Backspace"}}, mock.structured())
	})
}

func TestCognitivePause(t *testing.T) {
	h, mock := setupKeyboardTest(t)
	require.NoError(t, h.CognitivePause(context.Background(), 200, 0))
	assert.Equal(t, []time.Duration{200 * time.Millisecond}, mock.sleeps())

	require.NoError(t, h.CognitivePause(context.Background(), -50, 0))
	assert.Len(t, mock.sleeps(), 1, "non-positive pauses are skipped")
}
