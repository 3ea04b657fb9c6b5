package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/ipowatch/dashboard-backend/models"
	"github.com/ipowatch/dashboard-backend/shared"
	"github.com/sirupsen/logrus"
)

// ScraperConfiguration holds configuration parameters for the listing scraper
type ScraperConfiguration struct {
	BaseURL            string        // Target website base URL
	HTTPRequestTimeout time.Duration // Maximum time to wait for HTTP responses
	RequestRateLimit   time.Duration // Minimum delay between consecutive requests
	MaxRetryAttempts   int           // Maximum number of retry attempts for failed requests
}

// NewDefaultScraperConfiguration returns production-ready default configuration
func NewDefaultScraperConfiguration() *ScraperConfiguration {
	return &ScraperConfiguration{
		BaseURL:            "https://www.chittorgarh.com",
		HTTPRequestTimeout: 30 * time.Second,
		RequestRateLimit:   1 * time.Second,
		MaxRetryAttempts:   3,
	}
}

// IPOListing is one candidate IPO discovered on a listing index page.
type IPOListing struct {
	Name      string
	URL       string
	Mentioned bool // named in the page's "current active IPOs are ..." sentence
}

// RawIPODetail carries the unparsed field values extracted from one IPO
// detail page. Empty string means the page did not present the field; the
// derivation services decide what that means.
type RawIPODetail struct {
	OpenDate      string
	CloseDate     string
	ListingDate   string
	AllotmentDate string
	RefundDate    string
	CreditDate    string
	PriceRange    string
	LotSize       string
	IssueSize     string

	// Application-size table rows keyed by tier (retail-min, s-hni-min, ...),
	// present only on pages that publish the table.
	ApplicationRows map[string]models.ApplicationTier

	Allocation AllocationInput

	GMPURL string
}

var ipoDetailLinkRegex = regexp.MustCompile(`/ipo/[^/]+-ipo/\d+/?$`)

// Listing index paths per exchange platform.
const (
	mainboardListingPath = "/report/ipo-in-india-list-main-board-sme/82/mainboard/"
	smeListingPath       = "/report/ipo-in-india-list-main-board-sme/82/sme/"
)

// ChittorgarhScraper fetches IPO listing and detail pages. It is the opaque
// fetch collaborator: its output is raw field text whose correctness depends
// entirely on the upstream page layout.
type ChittorgarhScraper struct {
	config        *ScraperConfiguration
	rateLimiter   *shared.HTTPRequestRateLimiter
	clientFactory *shared.HTTPClientFactory
	utility       *UtilityService
	metrics       *shared.ServiceMetrics

	// knownURLs maps company names whose generated slug does not match the
	// real page to their detail URLs. First stop of the resolver chain.
	knownURLs map[string]string
}

// NewChittorgarhScraper creates a scraper for chittorgarh listing pages.
// Passing nil config uses defaults.
func NewChittorgarhScraper(config *ScraperConfiguration, utility *UtilityService) *ChittorgarhScraper {
	if config == nil {
		config = NewDefaultScraperConfiguration()
	}

	return &ChittorgarhScraper{
		config:        config,
		rateLimiter:   shared.NewHTTPRequestRateLimiter(config.RequestRateLimit),
		clientFactory: shared.NewHTTPClientFactory(config.HTTPRequestTimeout),
		utility:       utility,
		metrics:       shared.NewServiceMetrics("Chittorgarh_Scraper"),
		knownURLs: map[string]string{
			"Sellowrap Industries":    "https://www.chittorgarh.com/ipo/sellowrap-industries-ipo/2040/",
			"Shree Refrigerations":    "https://www.chittorgarh.com/ipo/shree-refrigerations-ipo/2145/",
			"Patel Chem Specialities": "https://www.chittorgarh.com/ipo/patel-chem-ipo/2153/",
		},
	}
}

// FetchListings crawls the index page for the given platform and returns
// candidate IPO detail links, with IPOs named in the page's active-IPO
// sentence ordered first.
func (s *ChittorgarhScraper) FetchListings(ctx context.Context, platform models.ExchangePlatform) ([]IPOListing, error) {
	startTime := time.Now()
	s.rateLimiter.EnforceRateLimit()

	path := mainboardListingPath
	if platform == models.PlatformSME {
		path = smeListingPath
	}
	pageURL := s.config.BaseURL + path

	logger := logrus.WithFields(logrus.Fields{
		"component": "ChittorgarhScraper",
		"platform":  platform,
		"url":       pageURL,
	})

	collector := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
	)
	collector.SetRequestTimeout(s.config.HTTPRequestTimeout)

	var mentionedNames []string
	seen := make(map[string]bool)
	var listings []IPOListing

	collector.OnHTML("body", func(e *colly.HTMLElement) {
		mentionedNames = extractActiveMentions(e.Text)
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		text := strings.TrimSpace(e.Text)

		if !ipoDetailLinkRegex.MatchString(href) {
			return
		}
		if isNavigationLink(href, text) {
			return
		}

		fullURL := e.Request.AbsoluteURL(href)
		if fullURL == "" || seen[fullURL] {
			return
		}
		seen[fullURL] = true

		listings = append(listings, IPOListing{Name: text, URL: fullURL})
	})

	if err := collector.Visit(pageURL); err != nil {
		s.metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "LISTING_FETCH_FAILED",
			"Chittorgarh_Scraper", "FetchListings", true)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		s.metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.WrapError(err, shared.ErrorCategoryTimeout, "LISTING_FETCH_CANCELLED",
			"Chittorgarh_Scraper", "FetchListings", false)
	}

	// IPOs the page names as currently active go first; everything else
	// keeps discovery order.
	var prioritized, rest []IPOListing
	matched := make(map[string]bool)
	for _, listing := range listings {
		if name, ok := mentionMatch(listing, mentionedNames); ok {
			listing.Mentioned = true
			matched[name] = true
			prioritized = append(prioritized, listing)
		} else {
			rest = append(rest, listing)
		}
	}

	// An active IPO the index page names but does not link still gets a
	// candidate entry, with its URL resolved from the lookup table or the
	// generated slug.
	for _, name := range mentionedNames {
		if matched[name] {
			continue
		}
		if resolved := s.ResolveIPOURL(name); resolved != "" && !seen[resolved] {
			seen[resolved] = true
			prioritized = append(prioritized, IPOListing{Name: name, URL: resolved, Mentioned: true})
		}
	}

	ordered := append(prioritized, rest...)

	s.metrics.RecordRequest(true, time.Since(startTime))
	logger.WithFields(logrus.Fields{
		"candidates": len(ordered),
		"mentioned":  len(prioritized),
	}).Info("Fetched IPO listing index")

	return ordered, nil
}

// FetchDetail downloads and parses one IPO detail page into raw field values.
func (s *ChittorgarhScraper) FetchDetail(ctx context.Context, pageURL string) (*RawIPODetail, error) {
	startTime := time.Now()
	s.rateLimiter.EnforceRateLimit()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryProcessing, "DETAIL_REQUEST_INVALID",
			"Chittorgarh_Scraper", "FetchDetail", false)
	}
	shared.SetBrowserLikeHeaders(request, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := s.clientFactory.Client(s.config.HTTPRequestTimeout)
	response, err := shared.ExecuteHTTPRequestWithRetry(client, request, s.config.MaxRetryAttempts)
	if err != nil {
		s.metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "DETAIL_FETCH_FAILED",
			"Chittorgarh_Scraper", "FetchDetail", true)
	}
	defer response.Body.Close()

	document, err := goquery.NewDocumentFromReader(response.Body)
	if err != nil {
		s.metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.WrapError(err, shared.ErrorCategoryProcessing, "DETAIL_PARSE_FAILED",
			"Chittorgarh_Scraper", "FetchDetail", false)
	}

	detail := s.extractDetail(document)
	s.metrics.RecordRequest(true, time.Since(startTime))

	logrus.WithFields(logrus.Fields{
		"component":       "ChittorgarhScraper",
		"url":             pageURL,
		"has_price_range": detail.PriceRange != "",
		"has_lot_size":    detail.LotSize != "",
		"has_nii_shares":  detail.Allocation.NIISharesRaw != "",
		"has_gmp_url":     detail.GMPURL != "",
	}).Debug("Extracted IPO detail page")

	return detail, nil
}

// ResolveIPOURL resolves a company name to its detail page URL through the
// prioritized chain: explicit lookup table, then generated slug. The
// generated URL is a guess; callers find out when they fetch it.
func (s *ChittorgarhScraper) ResolveIPOURL(companyName string) string {
	if known, exists := s.knownURLs[companyName]; exists {
		return known
	}

	slug := s.utility.GenerateCompanySlug(companyName)
	if slug == "" {
		return ""
	}
	return fmt.Sprintf("%s/ipo/%s-ipo/", s.config.BaseURL, slug)
}

// extractDetail walks every table on the page, matching row labels the same
// way regardless of which table they appear in. Two-cell rows carry dates,
// pricing and allocation figures; four-cell rows are the application-size
// table.
func (s *ChittorgarhScraper) extractDetail(document *goquery.Document) *RawIPODetail {
	detail := &RawIPODetail{ApplicationRows: make(map[string]models.ApplicationTier)}

	document.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})

		if len(cells) >= 2 {
			s.extractLabelledValue(detail, cells)
		}
		if len(cells) >= 4 {
			s.extractApplicationRow(detail, cells)
		}
	})

	// The GMP tracker link, when the page carries one, points at the
	// investorgain chr-gmp page for this IPO.
	document.Find(`a[href*="investorgain.com/chr-gmp"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if href, exists := link.Attr("href"); exists && strings.Contains(href, "chr-gmp") {
			detail.GMPURL = href
			return false
		}
		return true
	})

	return detail
}

func (s *ChittorgarhScraper) extractLabelledValue(detail *RawIPODetail, cells []string) {
	label := strings.ToLower(cells[0])
	value := cells[1]

	switch {
	case strings.Contains(label, "open date"):
		setIfEmpty(&detail.OpenDate, value)
	case strings.Contains(label, "close date"):
		setIfEmpty(&detail.CloseDate, value)
	case strings.Contains(label, "listing date"):
		setIfEmpty(&detail.ListingDate, value)
	case strings.Contains(label, "tentative allotment"):
		setIfEmpty(&detail.AllotmentDate, value)
	case strings.Contains(label, "initiation of refunds") || strings.Contains(label, "refund"):
		setIfEmpty(&detail.RefundDate, value)
	case strings.Contains(label, "credit of shares") || strings.Contains(label, "credit"):
		setIfEmpty(&detail.CreditDate, value)
	case strings.Contains(label, "issue price") || strings.Contains(label, "price band"):
		setIfEmpty(&detail.PriceRange, value)
	case strings.Contains(label, "lot size"):
		setIfEmpty(&detail.LotSize, value)
	case strings.Contains(label, "issue size"):
		setIfEmpty(&detail.IssueSize, value)
	case strings.Contains(label, "b-nii") && strings.Contains(label, "shares"):
		setIfEmpty(&detail.Allocation.BNIISharesRaw, value)
		if len(cells) >= 3 {
			setIfEmpty(&detail.Allocation.MaxBNIIRaw, cells[2])
		}
	case strings.Contains(label, "s-nii") && strings.Contains(label, "shares"):
		setIfEmpty(&detail.Allocation.SNIISharesRaw, value)
		if len(cells) >= 3 {
			setIfEmpty(&detail.Allocation.MaxSNIIRaw, cells[2])
		}
	case strings.Contains(label, "nii") && strings.Contains(label, "shares offered"):
		setIfEmpty(&detail.Allocation.NIISharesRaw, value)
	case strings.Contains(label, "retail shares offered"):
		setIfEmpty(&detail.Allocation.RetailSharesRaw, value)
		if len(cells) >= 3 {
			setIfEmpty(&detail.Allocation.MaxRetailRaw, cells[2])
		}
	}
}

// extractApplicationRow parses one row of the application-size table
// (category, lots, shares, amount).
func (s *ChittorgarhScraper) extractApplicationRow(detail *RawIPODetail, cells []string) {
	category := strings.ToLower(cells[0])

	lots, okLots := s.utility.ParseIndianNumber(cells[1])
	shares, okShares := s.utility.ParseIndianNumber(cells[2])
	amount, okAmount := s.utility.ParseIndianNumber(cells[3])
	if !okLots || !okShares || !okAmount || shares == 0 {
		return
	}

	tier := models.ApplicationTier{Lots: lots, Shares: shares, Amount: amount}

	switch {
	case strings.Contains(category, "retail") && strings.Contains(category, "min"):
		detail.ApplicationRows["retail-min"] = tier
	case strings.Contains(category, "retail") && strings.Contains(category, "max"):
		detail.ApplicationRows["retail-max"] = tier
	case strings.Contains(category, "s-hni") && strings.Contains(category, "min"):
		detail.ApplicationRows["s-hni-min"] = tier
	case strings.Contains(category, "s-hni") && strings.Contains(category, "max"):
		detail.ApplicationRows["s-hni-max"] = tier
	case strings.Contains(category, "b-hni") && strings.Contains(category, "min"):
		detail.ApplicationRows["b-hni-min"] = tier
	}
}

var activeMentionRegex = regexp.MustCompile(`(?i)current (?:mainboard )?active (?:sme )?IPOs are\s+([^.]+)\.`)

// extractActiveMentions pulls IPO names out of the index page's "current
// active IPOs are X, Y, Z." sentence.
func extractActiveMentions(pageText string) []string {
	match := activeMentionRegex.FindStringSubmatch(pageText)
	if match == nil {
		return nil
	}

	var names []string
	for _, part := range strings.Split(match[1], ",") {
		name := strings.TrimSuffix(strings.TrimSpace(part), " IPO")
		name = strings.TrimSpace(strings.TrimSuffix(name, "IPO"))
		if len(name) > 2 {
			names = append(names, name)
		}
	}
	return names
}

// mentionMatch returns which mentioned name, if any, the listing belongs to.
func mentionMatch(listing IPOListing, mentioned []string) (string, bool) {
	lowerName := strings.ToLower(listing.Name)
	lowerURL := strings.ToLower(listing.URL)

	for _, name := range mentioned {
		lower := strings.ToLower(name)
		if strings.Contains(lowerName, lower) {
			return name, true
		}
		if strings.Contains(lowerURL, strings.ReplaceAll(lower, " ", "-")) {
			return name, true
		}
	}
	return "", false
}

// isNavigationLink filters out dashboard/report/tracker links that match the
// detail-page URL shape but are not IPO pages.
func isNavigationLink(href, text string) bool {
	lowerText := strings.ToLower(text)
	lowerHref := strings.ToLower(href)

	for _, keyword := range []string{"dashboard", "tracker", "reports", "message board", "grey market", "discussions"} {
		if strings.Contains(lowerText, keyword) || strings.Contains(lowerHref, strings.ReplaceAll(keyword, " ", "")) {
			return true
		}
	}
	return false
}

func setIfEmpty(target *string, value string) {
	if *target == "" && value != "" {
		*target = value
	}
}
