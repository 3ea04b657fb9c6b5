package services

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ipowatch/dashboard-backend/models"
	"github.com/ipowatch/dashboard-backend/shared"
	"github.com/sirupsen/logrus"
)

// GMPService fetches grey-market premium quotes from investorgain tracker
// pages. The pages render their GMP trend table with JavaScript, so quotes
// go through the shared headless browser rather than a plain HTTP fetch.
//
// Quotes are cached per IPO for the configured TTL. Error readings are never
// cached: a transient upstream failure must not suppress retries for the
// full cache window.
type GMPService struct {
	pool    *shared.BrowserPool
	cache   *Cache[models.GMPQuote]
	timeout time.Duration
	metrics *shared.ServiceMetrics
}

// NewGMPService creates a GMP lookup service backed by the given browser
// pool and quote cache.
func NewGMPService(pool *shared.BrowserPool, cache *Cache[models.GMPQuote], timeout time.Duration) *GMPService {
	return &GMPService{
		pool:    pool,
		cache:   cache,
		timeout: timeout,
		metrics: shared.NewServiceMetrics("GMP_Service"),
	}
}

// gmpExtractionScript reads the first row of the GMP trend table. The
// estimated listing price cell carries the premium alongside the price,
// e.g. "250 (13.64%)".
const gmpExtractionScript = `
(function() {
	var cell = document.querySelector('td[data-title="Estimated Listing Price"]');
	if (cell) {
		return cell.textContent.trim();
	}
	var rows = document.querySelectorAll('table tbody tr');
	if (rows.length > 0) {
		var cells = rows[0].querySelectorAll('td');
		for (var i = 0; i < cells.length; i++) {
			var text = cells[i].textContent.trim();
			if (/\(\s*-?[\d.]+\s*%\s*\)/.test(text)) {
				return text;
			}
		}
	}
	return '';
})()
`

// GetGMP returns the premium quote for an IPO, serving from cache when a
// fresh quote is held. Quotes are keyed by tracker URL, so a record whose
// link changes never inherits another page's quote. A nil or empty URL
// short-circuits to NoURL without touching the browser.
func (g *GMPService) GetGMP(ctx context.Context, ipoName, gmpURL string) models.GMPQuote {
	if gmpURL == "" {
		return models.GMPQuote{Status: models.GMPStatusNoURL}
	}

	if quote, hit := g.cache.Get(gmpURL); hit {
		return quote
	}

	return g.Refresh(ctx, ipoName, gmpURL)
}

// Refresh fetches a quote from the tracker page regardless of cache state
// and stores the result for subsequent GetGMP calls. Error quotes are
// returned to the caller but not stored.
func (g *GMPService) Refresh(ctx context.Context, ipoName, gmpURL string) models.GMPQuote {
	if gmpURL == "" {
		return models.GMPQuote{Status: models.GMPStatusNoURL}
	}

	quote := g.fetchQuote(ctx, ipoName, gmpURL)
	if quote.Status != models.GMPStatusError {
		g.cache.Put(gmpURL, quote)
	}
	return quote
}

func (g *GMPService) fetchQuote(ctx context.Context, ipoName, gmpURL string) models.GMPQuote {
	startTime := time.Now()
	logger := logrus.WithFields(logrus.Fields{
		"component": "GMPService",
		"ipo":       ipoName,
		"url":       gmpURL,
	})

	tabCtx, tabCancel, err := g.pool.Acquire()
	if err != nil {
		g.metrics.RecordRequest(false, time.Since(startTime))
		logger.WithError(err).Error("Failed to acquire browser tab for GMP fetch")
		return models.GMPQuote{Status: models.GMPStatusError, URL: &gmpURL}
	}
	defer tabCancel()

	runCtx, runCancel := context.WithTimeout(tabCtx, g.timeout)
	defer runCancel()

	// Propagate caller cancellation into the browser run.
	go func() {
		select {
		case <-ctx.Done():
			runCancel()
		case <-runCtx.Done():
		}
	}()

	var rawCell, pageText string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(gmpURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(gmpExtractionScript, &rawCell),
		chromedp.Evaluate(`document.body ? document.body.innerText.substring(0, 5000) : ''`, &pageText),
	)
	if err != nil {
		g.metrics.RecordRequest(false, time.Since(startTime))
		logger.WithError(err).Warn("GMP page fetch failed")
		return models.GMPQuote{Status: models.GMPStatusError, URL: &gmpURL}
	}

	quote := classifyGMPReading(rawCell, pageText)
	quote.URL = &gmpURL

	g.metrics.RecordRequest(true, time.Since(startTime))
	logger.WithFields(logrus.Fields{
		"status":   quote.Status,
		"duration": time.Since(startTime),
	}).Info("Fetched GMP quote")

	return quote
}

// classifyGMPReading maps an extracted table cell and surrounding page text
// to a quote. A closed tracker beats an empty cell; an empty or dashed cell
// on a live tracker means the premium is not yet being quoted.
func classifyGMPReading(rawCell, pageText string) models.GMPQuote {
	lowerPage := strings.ToLower(pageText)
	if strings.Contains(lowerPage, "gmp closed") || strings.Contains(lowerPage, "ipo is closed") {
		return models.GMPQuote{Status: models.GMPStatusClosed}
	}

	cell := strings.TrimSpace(rawCell)
	if cell == "" || cell == "-" || cell == "--" {
		return models.GMPQuote{Status: models.GMPStatusTBD}
	}

	value := strings.Join(strings.Fields(cell), " ")
	return models.GMPQuote{Value: &value, Status: models.GMPStatusLive}
}
