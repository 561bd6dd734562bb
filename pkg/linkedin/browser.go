// Package linkedin reads company profile fields from LinkedIn pages using a
// headless Chrome session authenticated with a member cookie.
package linkedin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultSizeSelector locates the employee-count text on a company page.
const DefaultSizeSelector = "a.org-top-card-summary-info-list__info-item-link span"

const (
	cookieName   = "li_at"
	cookieDomain = ".linkedin.com"
)

// ErrFieldMissing means the page loaded but the selector matched nothing.
var ErrFieldMissing = eris.New("linkedin: field not found on page")

// SizeFetcher reads the employee-count string from a company profile page.
type SizeFetcher interface {
	// FetchSize returns the raw size text and true, or "" and false when the
	// page could not be loaded or the field was missing. It never returns an
	// error: every failure is reported as not found.
	FetchSize(ctx context.Context, profileURL string) (string, bool)
}

// Config controls the browser session.
type Config struct {
	// SessionCookie is the li_at member cookie value.
	SessionCookie string
	// Selector overrides DefaultSizeSelector.
	Selector string
	// NavTimeout bounds a single page load plus field read. Default: 60s.
	NavTimeout time.Duration
	// MaxParallel caps concurrent tabs. Zero means no cap.
	MaxParallel int
}

// Browser implements SizeFetcher with chromedp.
type Browser struct {
	cfg         Config
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

var _ SizeFetcher = (*Browser)(nil)

// NewBrowser prepares a headless Chrome allocator. Chrome itself starts
// lazily on the first fetch.
func NewBrowser(cfg Config) (*Browser, error) {
	if cfg.SessionCookie == "" {
		return nil, eris.New("linkedin: session cookie is required")
	}
	if cfg.MaxParallel < 0 {
		return nil, eris.New("linkedin: max parallel must be >= 0")
	}
	if cfg.Selector == "" {
		cfg.Selector = DefaultSizeSelector
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Browser{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close shuts down the browser.
func (b *Browser) Close() {
	b.allocCancel()
}

// FetchSize loads profileURL and returns the size field text.
func (b *Browser) FetchSize(ctx context.Context, profileURL string) (string, bool) {
	log := zap.L().With(zap.String("url", profileURL))

	if !strings.HasPrefix(profileURL, "http") {
		log.Debug("linkedin: skipping invalid profile url")
		return "", false
	}
	if err := b.acquire(ctx); err != nil {
		log.Debug("linkedin: no browser slot", zap.Error(err))
		return "", false
	}
	defer b.release()

	text, err := b.readField(ctx, profileURL)
	if errors.Is(err, ErrFieldMissing) {
		log.Debug("linkedin: size field missing")
		return "", false
	}
	if err != nil {
		log.Warn("linkedin: size lookup failed", zap.Error(err))
		return "", false
	}
	text = cleanText(text)
	if text == "" {
		log.Debug("linkedin: size field empty")
		return "", false
	}
	return text, true
}

func (b *Browser) readField(ctx context.Context, profileURL string) (string, error) {
	taskCtx, taskCancel := chromedp.NewContext(b.allocator)
	defer taskCancel()

	// Tie the tab to the caller's context as well as the nav timeout.
	stop := context.AfterFunc(ctx, taskCancel)
	defer stop()

	taskCtx, cancel := context.WithTimeout(taskCtx, b.navTimeout())
	defer cancel()

	// AtLeast(0) reads the DOM once after load instead of polling for the
	// selector until the nav timeout.
	var nodes []*cdp.Node
	err := chromedp.Run(taskCtx,
		b.cookieAction(),
		chromedp.Navigate(profileURL),
		chromedp.Nodes(b.cfg.Selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil {
		return "", eris.Wrap(err, "linkedin: chromedp run")
	}

	id, err := firstNodeID(nodes)
	if err != nil {
		return "", err
	}
	var text string
	if err := chromedp.Run(taskCtx, chromedp.TextContent([]cdp.NodeID{id}, &text, chromedp.ByNodeID)); err != nil {
		return "", eris.Wrap(err, "linkedin: read field text")
	}
	return text, nil
}

func firstNodeID(nodes []*cdp.Node) (cdp.NodeID, error) {
	if len(nodes) == 0 || nodes[0] == nil {
		return 0, ErrFieldMissing
	}
	return nodes[0].NodeID, nil
}

func (b *Browser) cookieAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return eris.Wrap(err, "linkedin: enable network domain")
		}
		if err := sessionCookie(b.cfg.SessionCookie).Do(ctx); err != nil {
			return eris.Wrap(err, "linkedin: set session cookie")
		}
		return nil
	})
}

func sessionCookie(value string) *network.SetCookieParams {
	return network.SetCookie(cookieName, value).
		WithDomain(cookieDomain).
		WithPath("/").
		WithSecure(true).
		WithHTTPOnly(true)
}

func (b *Browser) acquire(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	select {
	case b.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "linkedin: browser slot wait canceled")
	}
}

func (b *Browser) release() {
	if b.limiter == nil {
		return
	}
	select {
	case <-b.limiter:
	default:
	}
}

func (b *Browser) navTimeout() time.Duration {
	if b.cfg.NavTimeout > 0 {
		return b.cfg.NavTimeout
	}
	return 60 * time.Second
}

// cleanText collapses the whitespace LinkedIn pads inline spans with.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
