// Package browser wraps a chromedp session with lookups that keep retrying
// while a page is still rendering.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Defaults for page loads and element polling
const (
	DefaultPoll             = 250 * time.Millisecond
	DefaultLoadTimeout      = 3 * time.Second
	DefaultNavigateAttempts = 10
	// pollsPerSecond turns a timeout in seconds into a lookup budget
	pollsPerSecond = 4
)

var (
	// ErrElementNotFound is returned when a lookup budget runs out
	ErrElementNotFound = errors.New("element not found")
	// ErrPageNotLoaded is returned when every navigation attempt failed
	ErrPageNotLoaded = errors.New("page not loaded")
)

// Backend performs single, non-waiting browser operations
type Backend interface {
	// Nodes returns the nodes currently matching selector, possibly none
	Nodes(ctx context.Context, selector string) ([]*cdp.Node, error)
	Navigate(ctx context.Context, url string) error
	// Allocate starts the browser and binds it to ctx
	Allocate(ctx context.Context) error
}

// ChromeBackend runs lookups on the chromedp browser bound to the context
type ChromeBackend struct{}

// Nodes implements Backend
func (ChromeBackend) Nodes(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	err := chromedp.Run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	return nodes, err
}

// Navigate implements Backend
func (ChromeBackend) Navigate(ctx context.Context, url string) error {
	return chromedp.Run(ctx, chromedp.Navigate(url))
}

// Allocate implements Backend. The first Run on a context launches Chrome and
// ties its lifetime to that context, so ctx must not carry a timeout.
func (ChromeBackend) Allocate(ctx context.Context) error {
	return chromedp.Run(ctx)
}

// NewBrowser starts a Chrome instance and returns a context bound to it
func NewBrowser(parent context.Context, headless bool) (context.Context, context.CancelFunc, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", headless))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}

	if err := (ChromeBackend{}).Allocate(ctx); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}
	return ctx, cancel, nil
}

// Locator finds elements and loads pages with bounded retries
type Locator struct {
	Backend          Backend
	Poll             time.Duration
	LoadTimeout      time.Duration
	NavigateAttempts int
	Logger           *slog.Logger

	allocated bool
}

// NewLocator creates a locator over a chromedp browser
func NewLocator(logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		Backend:          ChromeBackend{},
		Poll:             DefaultPoll,
		LoadTimeout:      DefaultLoadTimeout,
		NavigateAttempts: DefaultNavigateAttempts,
		Logger:           logger.With(slog.String("component", "browser")),
	}
}

// FindOne returns the first node matching selector, polling for up to
// timeoutSeconds. With force, a miss returns the document's html node.
func (l *Locator) FindOne(ctx context.Context, selector string, timeoutSeconds int, force bool) (*cdp.Node, error) {
	nodes, err := l.poll(ctx, selector, timeoutSeconds)
	if err == nil {
		return nodes[0], nil
	}
	if !force || ctx.Err() != nil {
		return nil, err
	}

	l.Logger.WarnContext(ctx, "element not found, using html root", slog.String("selector", selector))
	root, rootErr := l.Backend.Nodes(ctx, "html")
	if rootErr != nil || len(root) == 0 {
		return nil, err
	}
	return root[0], nil
}

// FindAll returns every node matching selector, polling for up to
// timeoutSeconds. With force, a miss returns an empty list.
func (l *Locator) FindAll(ctx context.Context, selector string, timeoutSeconds int, force bool) ([]*cdp.Node, error) {
	nodes, err := l.poll(ctx, selector, timeoutSeconds)
	if err == nil {
		return nodes, nil
	}
	if force && ctx.Err() == nil {
		l.Logger.WarnContext(ctx, "elements not found, returning none", slog.String("selector", selector))
		return []*cdp.Node{}, nil
	}
	return nil, err
}

// Navigate loads url, retrying each attempt under LoadTimeout
func (l *Locator) Navigate(ctx context.Context, url string) error {
	if err := l.allocate(ctx); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= l.NavigateAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, l.LoadTimeout)
		lastErr = l.Backend.Navigate(attemptCtx, url)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.Logger.DebugContext(ctx, "navigation attempt failed",
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()))
	}
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrPageNotLoaded, url, l.NavigateAttempts, lastErr)
}

// poll repeats a single lookup timeoutSeconds*4 times, Poll apart, ignoring
// lookup errors in between
func (l *Locator) poll(ctx context.Context, selector string, timeoutSeconds int) ([]*cdp.Node, error) {
	if err := l.allocate(ctx); err != nil {
		return nil, err
	}

	budget := timeoutSeconds * pollsPerSecond
	for i := 0; i < budget; i++ {
		nodes, err := l.Backend.Nodes(ctx, selector)
		if err == nil && len(nodes) > 0 {
			return nodes, nil
		}
		if i == budget-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.Poll):
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrElementNotFound, selector)
}

// allocate binds the browser to ctx once, before any per-attempt timeout
func (l *Locator) allocate(ctx context.Context) error {
	if l.allocated {
		return nil
	}
	if err := l.Backend.Allocate(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	l.allocated = true
	return nil
}
