package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mutiny19/indy-events/internal/logger"
	"github.com/mutiny19/indy-events/internal/source"
)

// Renderer fetches pages that build their DOM client-side. It drives a
// headless Chromium via chromedp, waits for the source's content-ready
// selector up to a bounded deadline, and returns the rendered DOM snapshot.
//
// Tabs are pooled: at most PoolSize renders run at once, and every tab is
// torn down on all exit paths including timeout.
type Renderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	sem         chan struct{}
	waitTimeout time.Duration
	timeout     time.Duration
}

// RendererOptions configures a Renderer.
type RendererOptions struct {
	// PoolSize caps concurrent browser tabs. Minimum 1.
	PoolSize int
	// WaitTimeout bounds the wait for the content-ready selector.
	WaitTimeout time.Duration
	// Timeout bounds the whole render including navigation.
	Timeout time.Duration
	// UserAgent is presented to the target site.
	UserAgent string
}

// NewRenderer launches the shared headless browser allocator. Call Close
// when the run finishes to release it.
func NewRenderer(parent context.Context, opts RendererOptions) *Renderer {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 1
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 5 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(parent, allocOpts...)
	return &Renderer{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		sem:         make(chan struct{}, opts.PoolSize),
		waitTimeout: opts.WaitTimeout,
		timeout:     opts.Timeout,
	}
}

// Fetch renders the source URL and returns the DOM snapshot as HTML.
func (r *Renderer) Fetch(ctx context.Context, src source.Source) ([]byte, error) {
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("acquiring render slot: %w", ctx.Err())
	}

	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	if err := chromedp.Run(tabCtx, chromedp.Navigate(src.URL)); err != nil {
		return nil, fmt.Errorf("navigating: %w", err)
	}

	// Wait for the ready condition, but extract anyway if it never shows:
	// page structure changes are expected over time and a partial DOM still
	// parses as a soft failure downstream.
	if src.WaitSelector != "" {
		waitCtx, cancelWait := context.WithTimeout(tabCtx, r.waitTimeout)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(src.WaitSelector, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			logger.Warn("render wait selector not found, extracting anyway", logger.Fields{
				"source":   src.Name,
				"selector": src.WaitSelector,
			})
		}
	} else {
		if err := chromedp.Run(tabCtx, chromedp.Sleep(2*time.Second)); err != nil {
			return nil, fmt.Errorf("settling page: %w", err)
		}
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("extracting DOM: %w", err)
	}
	return []byte(html), nil
}

// Close releases the underlying browser allocator.
func (r *Renderer) Close() {
	r.allocCancel()
}
