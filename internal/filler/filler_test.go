package filler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/analyzer"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/humanoid"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/sim"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	page   *sim.Page
	filler *Filler
	snap   *schemas.FormSnapshot
}

func setup(t *testing.T, markup string) *fixture {
	t.Helper()
	page, err := sim.New(markup)
	require.NoError(t, err)
	cfg := config.NewDefaultConfig()
	logger := zaptest.NewLogger(t)

	a, err := analyzer.New(cfg.Analyzer(), logger)
	require.NoError(t, err)
	doc, err := page.Snapshot(context.Background())
	require.NoError(t, err)
	snap, err := a.Analyze(context.Background(), doc)
	require.NoError(t, err)

	f := New(page, humanoid.NewTestHumanoid(page, 42), cfg.Filler(), logger)
	return &fixture{page: page, filler: f, snap: snap}
}

func (fx *fixture) question(t *testing.T, text string) schemas.Question {
	t.Helper()
	for _, q := range fx.snap.Questions {
		if q.Text == text {
			return q
		}
	}
	t.Fatalf("question %q not found", text)
	return schemas.Question{}
}

func (fx *fixture) fill(t *testing.T, text string, ans schemas.Answer) schemas.FillResult {
	t.Helper()
	return fx.filler.Fill(context.Background(), fx.snap, fx.question(t, text), ans)
}

func (fx *fixture) attr(t *testing.T, xpath, name string) string {
	t.Helper()
	st, err := fx.page.State(context.Background(), xpath)
	require.NoError(t, err)
	require.True(t, st.Found, xpath)
	return st.Attr(name)
}

func (fx *fixture) state(t *testing.T, xpath string) schemas.ElementState {
	t.Helper()
	st, err := fx.page.State(context.Background(), xpath)
	require.NoError(t, err)
	return st
}

func TestFill_SingleChoice(t *testing.T) {
	const q = "How satisfied are you with our service?"
	radio := func(v string) string { return "//*[@role='radio'][@data-value='" + v + "']" }

	t.Run("exact match selects exactly that option", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, q, schemas.Answer{Text: "neutral"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, 1, res.AttemptsUsed)
		assert.Equal(t, "click-parent", res.Strategy)
		assert.Equal(t, "true", fx.attr(t, radio("Neutral"), "aria-checked"))
		for _, other := range []string{"Very satisfied", "Satisfied", "Unsatisfied"} {
			assert.Equal(t, "false", fx.attr(t, radio(other), "aria-checked"), other)
		}
	})

	t.Run("containment match", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, q, schemas.Answer{Text: "I am very satisfied overall"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "true", fx.attr(t, radio("Very satisfied"), "aria-checked"))
	})

	t.Run("no match falls back to the first option", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, q, schemas.Answer{Text: "banana"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "true", fx.attr(t, radio("Very satisfied"), "aria-checked"))
	})

	t.Run("native radios use the checked property", func(t *testing.T) {
		fx := setup(t, sim.NativeForm)
		res := fx.fill(t, "Preferred session slot", schemas.Answer{Text: "Afternoon session"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "native-checked", res.Strategy)
		assert.True(t, fx.state(t, "//input[@id='slot-pm']").Checked)
		assert.False(t, fx.state(t, "//input[@id='slot-am']").Checked)
		assert.NotEmpty(t, fx.page.Events())
	})
}

func TestFill_MultiChoice(t *testing.T) {
	t.Run("aria checkboxes", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, "Which features do you use regularly?", schemas.Answer{Choices: []string{"Dashboard", "mobile app"}})
		require.True(t, res.Success, res.Err)
		box := func(v string) string { return "//*[@role='checkbox'][@aria-label='" + v + "']" }
		assert.Equal(t, "true", fx.attr(t, box("Dashboard"), "aria-checked"))
		assert.Equal(t, "false", fx.attr(t, box("Reports"), "aria-checked"))
		assert.Equal(t, "true", fx.attr(t, box("Mobile app"), "aria-checked"))
	})

	t.Run("already checked options are not toggled off", func(t *testing.T) {
		fx := setup(t, sim.NativeForm)
		require.NoError(t, fx.page.Click(context.Background(), "//input[@value='go']"))
		res := fx.fill(t, "Topics you are interested in", schemas.Answer{Choices: []string{"Go programming", "Data engineering"}})
		require.True(t, res.Success, res.Err)
		assert.True(t, fx.state(t, "//input[@value='go']").Checked)
		assert.True(t, fx.state(t, "//input[@value='data']").Checked)
		assert.False(t, fx.state(t, "//input[@value='cloud']").Checked)
	})

	t.Run("native checkboxes stay checked after the checked property is set", func(t *testing.T) {
		fx := setup(t, sim.NativeForm)
		res := fx.fill(t, "Topics you are interested in", schemas.Answer{Choices: []string{"Cloud infrastructure"}})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "native-checked", res.Strategy)
		assert.Equal(t, 1, res.AttemptsUsed)
		assert.True(t, fx.state(t, "//input[@value='cloud']").Checked)
		for _, ev := range fx.page.Events() {
			assert.NotEqual(t, "click", ev.Name, ev.XPath)
		}
	})
}

func TestFill_Dropdown(t *testing.T) {
	t.Run("custom listbox", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, "Which country do you live in?", schemas.Answer{Text: "Malaysia"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "open-and-pick", res.Strategy)
		assert.Equal(t, "true", fx.attr(t, "//*[@role='option'][@data-value='Malaysia']", "aria-selected"))
		assert.Equal(t, "false", fx.attr(t, "//*[@role='listbox']", "aria-expanded"))
	})

	t.Run("custom listbox without a match closes and fails", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, "Which country do you live in?", schemas.Answer{Text: "Atlantis"})
		assert.False(t, res.Success)
		assert.Equal(t, 3, res.AttemptsUsed)
		assert.Contains(t, res.Err, ErrNoMatch.Error())
		assert.Equal(t, "false", fx.attr(t, "//*[@role='listbox']", "aria-expanded"))
	})

	t.Run("native select", func(t *testing.T) {
		fx := setup(t, sim.NativeForm)
		res := fx.fill(t, "Your experience level", schemas.Answer{Text: "Intermediate"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "select-value", res.Strategy)
		assert.Equal(t, "mid", fx.state(t, "//select[@id='level']").Value)
	})
}

func TestFill_Scale(t *testing.T) {
	fx := setup(t, sim.DemoForm)
	res := fx.fill(t, "How likely are you to recommend us?", schemas.Answer{Text: "I'd say 4 out of 5"})
	require.True(t, res.Success, res.Err)
	scale := "//*[" + cls("freebirdFormviewerComponentsQuestionLinearscaleLinearscaleContainer") + "]"
	assert.Equal(t, "true", fx.attr(t, scale+"//*[@data-value='4']", "aria-checked"))
	assert.Equal(t, "false", fx.attr(t, scale+"//*[@data-value='5']", "aria-checked"))
}

func TestFill_FreeText(t *testing.T) {
	t.Run("email reads back exactly", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, "What is your email address?", schemas.Answer{Text: "hello@example.com"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "type", res.Strategy)
		assert.Equal(t, "hello@example.com", fx.state(t, "//input[@id='q-email']").Value)
	})

	t.Run("existing content is replaced", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		require.NoError(t, fx.page.SetProperty(context.Background(), "//input[@id='q-name']", "value", "old value"))
		res := fx.fill(t, "What is your full name?", schemas.Answer{Text: "Budi Santoso"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "Budi Santoso", fx.state(t, "//input[@id='q-name']").Value)
	})

	t.Run("paragraph", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, "Any other comments or suggestions?", schemas.Answer{Text: "Keep up the good work."})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "Keep up the good work.", fx.state(t, "//textarea").Value)
	})

	t.Run("ignored keystrokes fall back to assignment", func(t *testing.T) {
		fx := setup(t, `<html><body><div class="Qr7Oae"><div class="M7eMe">What is your name?</div>
			<input type="text" id="n" data-sim-drop-keys></div></body></html>`)
		res := fx.fill(t, "What is your name?", schemas.Answer{Text: "Ani"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "Ani", fx.state(t, "//input[@id='n']").Value)
	})

	t.Run("typing cadence follows the speed preset", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		fx.filler = fx.filler.WithSpeed(schemas.SpeedSlow)
		res := fx.fill(t, "What is your full name?", schemas.Answer{Text: "Ani"})
		require.True(t, res.Success, res.Err)
		assert.NotEmpty(t, fx.page.Sleeps())
	})
}

func TestFill_DateTime(t *testing.T) {
	t.Run("native date input gets the canonical form", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, "When did you first use our product?", schemas.Answer{Text: "25/12/2024"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "assign-canonical", res.Strategy)
		assert.Equal(t, "2024-12-25", fx.state(t, "//input[@id='q-date']").Value)
	})

	t.Run("unparseable date fails without guessing", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		res := fx.fill(t, "When did you first use our product?", schemas.Answer{Text: "sometime last year"})
		assert.False(t, res.Success)
		assert.Equal(t, 0, res.AttemptsUsed)
		assert.Contains(t, res.Err, ErrUnparseable.Error())
		assert.Empty(t, fx.state(t, "//input[@id='q-date']").Value)
	})

	t.Run("split date widget", func(t *testing.T) {
		fx := setup(t, `<html><body><div class="Qr7Oae"><div class="M7eMe">Date of birth please</div>
			<div class="freebirdFormviewerComponentsQuestionDateDateInputs">
			<input type="text" aria-label="Day of the month" id="d">
			<input type="text" aria-label="Month" id="m">
			<input type="text" aria-label="Year" id="y"></div></div></body></html>`)
		q := fx.question(t, "Date of birth please")
		require.Equal(t, schemas.Date, q.Type)
		res := fx.filler.Fill(context.Background(), fx.snap, q, schemas.Answer{Text: "2001-07-04"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "split-parts", res.Strategy)
		assert.Equal(t, "04", fx.state(t, "//input[@id='d']").Value)
		assert.Equal(t, "07", fx.state(t, "//input[@id='m']").Value)
		assert.Equal(t, "2001", fx.state(t, "//input[@id='y']").Value)
	})

	t.Run("time", func(t *testing.T) {
		fx := setup(t, sim.NativeForm)
		res := fx.fill(t, "Preferred start time", schemas.Answer{Text: "2:30 PM"})
		require.True(t, res.Success, res.Err)
		assert.Equal(t, "14:30", fx.state(t, "//input[@id='start']").Value)
	})
}

func TestFill_RetryBound(t *testing.T) {
	t.Run("inert field exhausts exactly max retries", func(t *testing.T) {
		fx := setup(t, `<html><body><div class="Qr7Oae" data-sim-inert><div class="M7eMe">Pick a colour please</div>
			<label><input type="radio" name="c" value="red"> Red</label>
			<label><input type="radio" name="c" value="blue"> Blue</label></div></body></html>`)
		res := fx.fill(t, "Pick a colour please", schemas.Answer{Text: "Blue"})
		assert.False(t, res.Success)
		assert.Equal(t, 3, res.AttemptsUsed)
		assert.Contains(t, res.Err, "verification failed")
	})

	t.Run("core loop applies a failing strategy max retries times", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		applies, verifies := 0, 0
		s := Strategy{
			Name:   "always-unverified",
			Apply:  func(context.Context) error { applies++; return nil },
			Verify: func(context.Context) bool { verifies++; return false },
		}
		res := fx.filler.run(context.Background(), fx.filler.logger, 0, []Strategy{s})
		assert.False(t, res.Success)
		assert.Equal(t, 3, applies)
		assert.Equal(t, 3, verifies)
		assert.Equal(t, 3, res.AttemptsUsed)
	})

	t.Run("retries pause through the humanoid", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		cfg := config.NewDefaultConfig().Filler()
		human := &pauseRecorder{Controller: humanoid.NewTestHumanoid(fx.page, 1)}
		f := New(fx.page, human, cfg, nil)
		s := Strategy{
			Name:   "always-unverified",
			Apply:  func(context.Context) error { return nil },
			Verify: func(context.Context) bool { return false },
		}
		res := f.run(context.Background(), f.logger, 0, []Strategy{s})
		assert.False(t, res.Success)
		require.Len(t, human.means, 2, "one pause between each pair of attempts")
		for _, m := range human.means {
			assert.Equal(t, float64(cfg.RetryDelay/time.Millisecond), m)
		}
	})

	t.Run("no retry pause when the delay is zero", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		cfg := config.NewDefaultConfig().Filler()
		cfg.RetryDelay = 0
		human := &pauseRecorder{Controller: humanoid.NewTestHumanoid(fx.page, 1)}
		f := New(fx.page, human, cfg, nil)
		s := Strategy{Name: "x", Apply: func(context.Context) error { return nil }, Verify: func(context.Context) bool { return false }}
		res := f.run(context.Background(), f.logger, 0, []Strategy{s})
		assert.Equal(t, 3, res.AttemptsUsed)
		assert.Empty(t, human.means)
	})

	t.Run("configured retries are honoured", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		cfg := config.NewDefaultConfig().Filler()
		cfg.MaxRetries = 5
		f := New(fx.page, humanoid.NewTestHumanoid(fx.page, 1), cfg, nil)
		applies := 0
		s := Strategy{
			Name:   "boom",
			Apply:  func(context.Context) error { applies++; return errors.New("boom") },
			Verify: func(context.Context) bool { return true },
		}
		res := f.run(context.Background(), f.logger, 0, []Strategy{s})
		assert.False(t, res.Success)
		assert.Equal(t, 5, applies)
		assert.Contains(t, res.Err, "boom")
	})

	t.Run("second strategy rescues the attempt", func(t *testing.T) {
		fx := setup(t, sim.DemoForm)
		failing := Strategy{Name: "a", Apply: func(context.Context) error { return nil }, Verify: func(context.Context) bool { return false }}
		working := Strategy{Name: "b", Apply: func(context.Context) error { return nil }, Verify: func(context.Context) bool { return true }}
		res := fx.filler.run(context.Background(), fx.filler.logger, 0, []Strategy{failing, working})
		assert.True(t, res.Success)
		assert.Equal(t, "b", res.Strategy)
		assert.Equal(t, 1, res.AttemptsUsed)
	})
}

func TestFill_Refusals(t *testing.T) {
	fx := setup(t, sim.DemoForm)

	t.Run("file upload is unsupported", func(t *testing.T) {
		res := fx.fill(t, "Upload your receipt (optional)", schemas.Answer{Text: "receipt.pdf"})
		assert.False(t, res.Success)
		assert.Equal(t, 0, res.AttemptsUsed)
		assert.Contains(t, res.Err, ErrUnsupported.Error())
	})

	t.Run("stale snapshot", func(t *testing.T) {
		q := fx.question(t, "What is your full name?")
		newer := *fx.snap
		newer.Generation++
		res := fx.filler.Fill(context.Background(), &newer, q, schemas.Answer{Text: "x"})
		assert.False(t, res.Success)
		assert.Equal(t, ErrStaleRef.Error(), res.Err)
	})

	t.Run("empty answer", func(t *testing.T) {
		res := fx.fill(t, "What is your full name?", schemas.Answer{Text: "  "})
		assert.False(t, res.Success)
		assert.Equal(t, ErrEmptyAnswer.Error(), res.Err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := fx.filler.Fill(ctx, fx.snap, fx.question(t, "What is your full name?"), schemas.Answer{Text: "x"})
		assert.False(t, res.Success)
		assert.Contains(t, res.Err, context.Canceled.Error())
	})
}

// pauseRecorder records CognitivePause calls and forwards everything.
type pauseRecorder struct {
	humanoid.Controller
	means []float64
}

func (p *pauseRecorder) CognitivePause(ctx context.Context, meanMs, stdDevMs float64) error {
	p.means = append(p.means, meanMs)
	return p.Controller.CognitivePause(ctx, meanMs, stdDevMs)
}
