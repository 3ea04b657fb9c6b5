package shared

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// BrowserPool manages a single shared headless-browser allocator with a
// max-age eviction policy. Long-lived Chrome instances leak memory on
// JS-heavy pages, so the allocator is torn down and relaunched once it
// exceeds maxAge. Acquire hands out one tab context per caller; releasing
// the tab never tears down the shared allocator.
type BrowserPool struct {
	maxAge time.Duration

	mutex       sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	startedAt   time.Time

	// now and launch are overridable for tests.
	now    func() time.Time
	launch func(parent context.Context) (context.Context, context.CancelFunc)
}

// NewBrowserPool creates a pool that restarts its browser allocator after maxAge.
func NewBrowserPool(maxAge time.Duration) *BrowserPool {
	return &BrowserPool{
		maxAge: maxAge,
		now:    time.Now,
		launch: launchAllocator,
	}
}

func launchAllocator(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-images", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	return chromedp.NewExecAllocator(parent, opts...)
}

// Acquire returns a browser tab context derived from the shared allocator,
// restarting the allocator first if it is expired or no longer healthy.
// The returned cancel func releases only the tab.
func (p *BrowserPool) Acquire() (context.Context, context.CancelFunc, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.needsRestartLocked() {
		p.restartLocked()
	}

	tabCtx, tabCancel := chromedp.NewContext(p.allocCtx)
	return tabCtx, tabCancel, nil
}

// Healthy reports whether the current allocator is usable without a restart.
func (p *BrowserPool) Healthy() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return !p.needsRestartLocked()
}

func (p *BrowserPool) needsRestartLocked() bool {
	if p.allocCtx == nil {
		return true
	}
	if p.allocCtx.Err() != nil {
		return true
	}
	return p.now().Sub(p.startedAt) > p.maxAge
}

func (p *BrowserPool) restartLocked() {
	if p.allocCancel != nil {
		logrus.WithField("component", "BrowserPool").Info("Browser instance expired, restarting")
		p.allocCancel()
	}

	p.allocCtx, p.allocCancel = p.launch(context.Background())
	p.startedAt = p.now()

	logrus.WithFields(logrus.Fields{
		"component": "BrowserPool",
		"max_age":   p.maxAge,
	}).Info("Started new shared browser allocator")
}

// Close tears down the shared allocator and any browser it launched.
func (p *BrowserPool) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.allocCancel != nil {
		p.allocCancel()
		p.allocCtx = nil
		p.allocCancel = nil
		logrus.WithField("component", "BrowserPool").Info("Closed shared browser allocator")
	}
}
