// internal/browser/session/session.go
// Package session drives a live Chromium tab over the DevTools protocol. It
// implements the page the analyzer, filler and orchestrator work against.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"github.com/xkilldash9x/formpilot-cli/internal/browser/humanoid"
	"github.com/xkilldash9x/formpilot-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when an XPath resolves to no element in the tab.
var ErrNotFound = errors.New("session: element not found")

// Session owns one browser tab.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger
	exec        *cdpExecutor

	mu         sync.Mutex
	generation uint64

	mutations chan struct{}
	closeOnce sync.Once
}

// New launches a browser, or attaches to cfg.RemoteURL, and opens a tab.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("session")

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		log.Info("Attaching to running browser.", zap.String("url", cfg.RemoteURL))
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	}

	tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Sugar().Debugf))
	s := &Session{
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      log,
		mutations:   make(chan struct{}, 16),
	}
	s.exec = &cdpExecutor{ctx: tabCtx, logger: log, runActionsFunc: s.RunActions}

	// The first Run starts the browser and attaches the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	if err := s.installObserver(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// allocatorOptions builds the launch flags. Extra args take the form
// "--name=value" or "--name".
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("headless", cfg.Headless),
	)
	for _, arg := range cfg.Args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "" {
			continue
		}
		if hasValue {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

func (s *Session) installObserver(ctx context.Context) error {
	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		if b, ok := ev.(*runtime.EventBindingCalled); ok && b.Name == MutationBinding {
			select {
			case s.mutations <- struct{}{}:
			default:
			}
		}
	})
	err := s.RunActions(ctx,
		runtime.AddBinding(MutationBinding),
		chromedp.ActionFunc(func(c context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(observerJS).Do(c)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("install mutation observer: %w", err)
	}
	return nil
}

// Executor exposes the CDP input executor for the humanoid controller.
func (s *Session) Executor() humanoid.Executor { return s.exec }

// Mutations signals when question markup is added to the page.
func (s *Session) Mutations() <-chan struct{} { return s.mutations }

// RunActions runs chromedp actions against the tab, bounded by both the
// session lifetime and ctx.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	combined, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	err := chromedp.Run(combined, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and waits for the body plus the configured settle time.
// The observer is evaluated again in case the document was already live.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	if err := s.RunActions(navCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if s.cfg.PostLoadWait > 0 {
		if err := s.Sleep(ctx, s.cfg.PostLoadWait); err != nil {
			return err
		}
	}
	if err := s.RunActions(ctx, chromedp.Evaluate(observerJS, nil)); err != nil {
		s.logger.Debug("Observer evaluation failed.", zap.Error(err))
	}
	s.logger.Info("Page loaded.", zap.String("url", url))
	return nil
}

// URL returns the tab's current location.
func (s *Session) URL(ctx context.Context) (string, error) {
	var u string
	if err := s.RunActions(ctx, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

// Snapshot stamps the live document with a new generation and parses it.
// Refs from older generations stop resolving once the stamps are replaced.
func (s *Session) Snapshot(ctx context.Context) (*dom.Document, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	script, err := invoke(stampFn, gen)
	if err != nil {
		return nil, err
	}
	var markup, loc string
	if err := s.RunActions(ctx, chromedp.Evaluate(script, &markup), chromedp.Location(&loc)); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	doc, err := dom.ParseString(markup, gen)
	if err != nil {
		return nil, fmt.Errorf("snapshot: parse: %w", err)
	}
	doc.URL = loc
	s.logger.Debug("Snapshot taken.", zap.Uint64("generation", gen), zap.Int("bytes", len(markup)))
	return doc, nil
}

// Generation returns the last snapshot generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Sleep pauses for d unless ctx ends first.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return s.exec.Sleep(ctx, d)
}

// Close shuts the tab and, when launched here, the browser.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		closeCtx, cancel := context.WithTimeout(Detach(s.ctx), 5*time.Second)
		defer cancel()
		if err := chromedp.Cancel(closeCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("Tab close returned an error.", zap.Error(err))
		}
		s.cancel()
		s.allocCancel()
	})
}
