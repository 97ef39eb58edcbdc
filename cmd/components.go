// File: cmd/components.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/analyzer"
	"github.com/xkilldash9x/formpilot-cli/internal/answer"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/humanoid"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/session"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
	"github.com/xkilldash9x/formpilot-cli/internal/credentials"
	"github.com/xkilldash9x/formpilot-cli/internal/filler"
	"github.com/xkilldash9x/formpilot-cli/internal/llmclient"
	"github.com/xkilldash9x/formpilot-cli/internal/orchestrator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// page is implemented by both the live browser session and the in-memory page.
type page interface {
	filler.Page
	Snapshot(ctx context.Context) (*dom.Document, error)
}

// buildOrchestrator wires the analyze, generate and fill pipeline over p.
func buildOrchestrator(cfg *config.Config, logger *zap.Logger, p page, gen orchestrator.Generator) (*orchestrator.Orchestrator, error) {
	a, err := analyzer.New(cfg.Analyzer(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}
	human := humanoid.New(humanoid.FromAppConfig(cfg.Browser().Humanoid), logger, p)
	f := filler.New(p, human, cfg.Filler(), logger).WithSpeed(cfg.Preferences().Speed)
	return orchestrator.New(cfg, logger, p, a, gen, f)
}

// buildGenerator loads the API keys and returns the answer generator. A
// missing key is not an error; every answer then comes from the offline table.
func buildGenerator(cfg *config.Config, logger *zap.Logger) (*answer.Generator, error) {
	store, err := credentials.NewStore(cfg.Credentials().Path, logger)
	if err != nil {
		return nil, err
	}
	keys, err := store.Credentials()
	if err != nil {
		return nil, fmt.Errorf("failed to load API keys: %w", err)
	}
	if len(keys) == 0 {
		logger.Warn("No API keys configured; answers will come from the offline table. Add one with 'formpilot keys add'.")
	}
	client := llmclient.NewGeminiClient(cfg.LLM(), logger)
	return answer.NewGenerator(client, keys, cfg.LLM(), logger), nil
}

// openPage starts a browser session and loads url. It warns when the page
// does not look like a form.
func openPage(ctx context.Context, cfg *config.Config, logger *zap.Logger, url string) (*session.Session, error) {
	s, err := session.New(ctx, cfg.Browser(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if err := s.Navigate(ctx, url); err != nil {
		s.Close()
		return nil, err
	}
	doc, err := s.Snapshot(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	if !session.IsFormPage(url, doc) {
		logger.Warn("This page does not look like a form; results may be empty.", zap.String("url", url))
	}
	return s, nil
}

// printProgress writes run progress lines to w until events is closed.
func printProgress(w io.Writer, events <-chan schemas.ProgressEvent) {
	for ev := range events {
		switch ev.Phase {
		case schemas.PhaseStarted:
			fmt.Fprintf(w, "Filling %d questions...\n", ev.Total)
		case schemas.PhaseFilled:
			fmt.Fprintf(w, "  [%d/%d] ok      %s\n", ev.Current, ev.Total, ev.QuestionText)
		case schemas.PhaseFailed:
			fmt.Fprintf(w, "  [%d/%d] failed  %s (%s)\n", ev.Current, ev.Total, ev.QuestionText, ev.Message)
		case schemas.PhaseCompleted:
			fmt.Fprintln(w, ev.Message)
		}
	}
}

// runFill fills the page through o and streams progress to w.
func runFill(ctx context.Context, o *orchestrator.Orchestrator, w io.Writer, onlyUnanswered bool) (schemas.RunSummary, error) {
	events, unsubscribe := o.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(w, events)
	}()
	summary, err := o.Fill(ctx, onlyUnanswered)
	unsubscribe()
	<-done
	if err != nil {
		return summary, errors.New(orchestrator.StatusMessage(summary, err))
	}
	return summary, nil
}

// writeJSON prints v indented.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
