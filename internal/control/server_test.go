package control

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/analyzer"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/humanoid"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/sim"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
	"github.com/xkilldash9x/formpilot-cli/internal/filler"
	"github.com/xkilldash9x/formpilot-cli/internal/orchestrator"
)

const twoQuestions = `<html><body>
<div class="freebirdFormviewerViewHeaderTitle">Signup</div>
<div role="listitem" data-params="q1"><div class="Qr7Oae">
  <div class="M7eMe">What is your full name?</div>
  <input type="text" id="name">
</div></div>
<div role="listitem" data-params="q2"><div class="Qr7Oae">
  <div class="M7eMe">Which country do you live in?</div>
  <select id="country"><option value="">Choose</option><option value="id">Indonesia</option><option value="my">Malaysia</option></select>
</div></div>
</body></html>`

type stubGenerator struct {
	block chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, q schemas.Question, _ schemas.Preferences) schemas.Answer {
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
		}
	}
	if q.Type == schemas.Dropdown {
		return schemas.Answer{Text: "Indonesia"}
	}
	return schemas.Answer{Text: "Budi Santoso"}
}

type harness struct {
	page   *sim.Page
	orch   *orchestrator.Orchestrator
	gen    *stubGenerator
	server *Server
	ts     *httptest.Server
}

func setup(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	page, err := sim.New(twoQuestions)
	require.NoError(t, err)
	cfg := config.NewDefaultConfig()
	cfg.FillerCfg.QuestionDelay = 0

	a, err := analyzer.New(cfg.Analyzer(), logger)
	require.NoError(t, err)
	f := filler.New(page, humanoid.NewTestHumanoid(page, 3), cfg.Filler(), logger)
	gen := &stubGenerator{}
	o, err := orchestrator.New(cfg, logger, page, a, gen, f)
	require.NoError(t, err)

	s, err := NewServer(cfg.Control(), logger, o)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &harness{page: page, orch: o, gen: gen, server: s, ts: ts}
}

func (h *harness) command(t *testing.T, body string) (int, CommandResponse) {
	t.Helper()
	resp, err := h.ts.Client().Post(h.ts.URL+"/api/v1/command", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out CommandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// decode re-reads a loosely typed response payload into T.
func decode[T any](t *testing.T, data interface{}) T {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestNewServer_RequiresRunner(t *testing.T) {
	_, err := NewServer(config.ControlConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	h := setup(t)
	resp, err := h.ts.Client().Get(h.ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCommand_PingAndErrors(t *testing.T) {
	h := setup(t)

	code, resp := h.command(t, `{"command":"ping"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "pong", resp.Message)

	code, resp = h.command(t, `{"command":"explode"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "Unknown command")

	code, resp = h.command(t, `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "Invalid request body")

	code, resp = h.command(t, `{"command":"fill","params":{"only_unanswered":"yes"}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "Invalid parameters")
}

func TestCommand_AnalyzeAndFormData(t *testing.T) {
	h := setup(t)

	code, resp := h.command(t, `{"command":"form_data"}`)
	require.Equal(t, http.StatusOK, code)
	fd := decode[FormData](t, resp.Data)
	assert.Equal(t, 2, fd.Count)
	assert.Equal(t, 2, fd.Unanswered)
	require.NotNil(t, fd.Snapshot)
	assert.Equal(t, "Signup", fd.Snapshot.Title)
	assert.Equal(t, uint64(1), h.page.Generation())

	// form_data reuses the last analysis.
	h.command(t, `{"command":"form_data"}`)
	assert.Equal(t, uint64(1), h.page.Generation())

	code, resp = h.command(t, `{"command":"ANALYZE"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Found 2 questions.", resp.Message)
	assert.Equal(t, uint64(2), h.page.Generation())
}

func TestCommand_FillWait(t *testing.T) {
	h := setup(t)
	code, resp := h.command(t, `{"command":"fill","params":{"wait":true}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Filled 2 of 2 questions.", resp.Message)

	summary := decode[schemas.RunSummary](t, resp.Data)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 0, summary.ErrorCount)

	name, err := h.page.State(context.Background(), "//input[@id='name']")
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", name.Value)
}

func TestCommand_FillInBackgroundRejectsSecondRun(t *testing.T) {
	h := setup(t)
	h.gen.block = make(chan struct{})

	code, resp := h.command(t, `{"command":"fill"}`)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "accepted", resp.Status)
	require.Eventually(t, h.orch.Busy, 2*time.Second, 5*time.Millisecond)

	code, resp = h.command(t, `{"command":"fill","params":{"wait":true}}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "A fill is already in progress.", resp.Error)

	code, _ = h.command(t, `{"command":"analyze"}`)
	assert.Equal(t, http.StatusConflict, code)

	close(h.gen.block)
	h.server.runs.Wait()
	assert.False(t, h.orch.Busy())
	require.NotNil(t, h.orch.LastSummary())
	assert.Equal(t, 2, h.orch.LastSummary().SuccessCount)
}

func TestProgressStream(t *testing.T) {
	h := setup(t)
	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/ws/v1/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello WSMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MsgTypeHello, hello.Type)
	require.NotNil(t, hello.State)
	assert.False(t, hello.State.Busy)

	code, _ := h.command(t, `{"command":"fill","params":{"wait":true}}`)
	require.Equal(t, http.StatusOK, code)

	var phases []schemas.ProgressPhase
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, MsgTypeProgress, msg.Type)
		require.NotNil(t, msg.Data)
		assert.NotEmpty(t, msg.Timestamp)
		phases = append(phases, msg.Data.Phase)
		if msg.Data.Phase == schemas.PhaseCompleted {
			assert.Equal(t, "Filled 2 of 2 questions.", msg.Data.Message)
			break
		}
	}
	assert.Equal(t, schemas.PhaseStarted, phases[0])
	assert.Len(t, phases, 1+2*3+1)
}

func TestLocalOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:8765", true},
		{"http://[::1]:8765", true},
		{"https://evil.example", false},
		{"chrome-extension://abcdef", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws/v1/progress", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, localOrigin(r), tt.origin)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := setup(t)
	s, err := NewServer(config.ControlConfig{ListenAddr: "127.0.0.1:0"}, zaptest.NewLogger(t), h.orch, WithMutations(h.page.Mutations()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_ListenError(t *testing.T) {
	h := setup(t)
	s, err := NewServer(config.ControlConfig{ListenAddr: "256.0.0.1:bad"}, nil, h.orch)
	require.NoError(t, err)
	assert.Error(t, s.Run(context.Background()))
}
