package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ipowatch/dashboard-backend/shared"
)

// UtilityService provides text processing, normalization, and locale-aware
// numeric parsing shared by the scraper and the derivation services.
type UtilityService struct {
	serviceMetrics *shared.ServiceMetrics
}

// NewUtilityService creates a new utility service instance
func NewUtilityService() *UtilityService {
	return &UtilityService{
		serviceMetrics: shared.NewServiceMetrics("Utility_Service"),
	}
}

var (
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	indianNumRegex   = regexp.MustCompile(`\d[\d,]*`)
	priceBandRegex   = regexp.MustCompile(`₹?\s*(\d[\d,]*(?:\.\d+)?)\s*(?:-|to)\s*₹?\s*(\d[\d,]*(?:\.\d+)?)`)
	singlePriceRegex = regexp.MustCompile(`₹?\s*(\d[\d,]*(?:\.\d+)?)`)
	digitsOnlyRegex  = regexp.MustCompile(`[^\d]`)
)

// NormalizeTextContent cleans and standardizes text content for consistent
// processing: collapses whitespace and strips currency prefixes.
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}

	text = strings.TrimSpace(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ReplaceAll(text, "₹", "")
	text = strings.ReplaceAll(text, "Rs.", "")
	text = strings.ReplaceAll(text, "Rs ", "")

	return strings.TrimSpace(text)
}

// NormalizeIPOName normalizes an IPO name for matching: lowercases, removes
// legal suffixes and punctuation.
func (s *UtilityService) NormalizeIPOName(name string) string {
	normalized := strings.ToLower(name)

	suffixes := []string{" ltd.", " ltd", " limited", " pvt.", " pvt", " private", " ipo"}
	for _, suffix := range suffixes {
		normalized = strings.TrimSuffix(normalized, suffix)
	}

	reg := regexp.MustCompile(`[^a-z0-9\s]`)
	normalized = reg.ReplaceAllString(normalized, "")

	return strings.TrimSpace(normalized)
}

// GenerateCompanySlug generates a URL-friendly slug from an IPO name
// (lowercase, hyphens instead of spaces, no special characters).
func (s *UtilityService) GenerateCompanySlug(name string) string {
	normalized := s.NormalizeIPOName(name)

	slug := strings.ReplaceAll(normalized, " ", "-")

	reg := regexp.MustCompile(`-+`)
	slug = reg.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// ParseIndianNumber extracts the first locale-formatted integer from text
// such as "5,23,200 (20.02%)" and returns its numeric value. Returns false
// when no non-negative integer can be parsed; callers must treat that as
// unknown, never as zero.
func (s *UtilityService) ParseIndianNumber(text string) (int64, bool) {
	startTime := time.Now()

	match := indianNumRegex.FindString(text)
	if match == "" {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return 0, false
	}

	n, err := strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
	if err != nil || n < 0 {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return 0, false
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	return n, true
}

// ParseLotSize extracts a positive share count from lot size text such as
// "1,600 Shares". Returns false for zero or unparseable input.
func (s *UtilityService) ParseLotSize(text string) (int64, bool) {
	startTime := time.Now()

	digits := digitsOnlyRegex.ReplaceAllString(text, "")
	if digits == "" {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return 0, false
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		s.serviceMetrics.RecordRequest(false, time.Since(startTime))
		return 0, false
	}

	s.serviceMetrics.RecordRequest(true, time.Since(startTime))
	return n, true
}

// ParsePriceBand parses a price band string such as "₹90 - ₹95" or
// "₹90 to ₹95" and returns both bounds. A single fixed price ("₹415")
// is returned as low == high. Allotment economics price off the ceiling,
// so callers use the high bound.
func (s *UtilityService) ParsePriceBand(text string) (low, high float64, ok bool) {
	startTime := time.Now()
	defer func() {
		s.serviceMetrics.RecordRequest(ok, time.Since(startTime))
	}()

	if text == "" {
		return 0, 0, false
	}

	if m := priceBandRegex.FindStringSubmatch(text); m != nil {
		low, lowErr := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		high, highErr := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if lowErr == nil && highErr == nil && high > 0 {
			return low, high, true
		}
		return 0, 0, false
	}

	if m := singlePriceRegex.FindStringSubmatch(text); m != nil {
		price, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err == nil && price > 0 {
			return price, price, true
		}
	}

	return 0, 0, false
}

// FormatIndianInt formats an integer with Indian digit grouping
// (1,00,00,000 style: last three digits, then groups of two).
func (s *UtilityService) FormatIndianInt(n int64) string {
	negative := n < 0
	if negative {
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		if negative {
			return "-" + digits
		}
		return digits
	}

	// Last three digits form one group, the rest is grouped in pairs.
	groups := []string{digits[len(digits)-3:]}
	rest := digits[:len(digits)-3]
	for len(rest) > 2 {
		groups = append([]string{rest[len(rest)-2:]}, groups...)
		rest = rest[:len(rest)-2]
	}
	if rest != "" {
		groups = append([]string{rest}, groups...)
	}

	out := strings.Join(groups, ",")
	if negative {
		return "-" + out
	}
	return out
}

// FormatIndianAmount formats a rupee amount with Indian digit grouping,
// keeping two decimals only when the amount is not whole.
func (s *UtilityService) FormatIndianAmount(amount float64) string {
	rounded := math.Round(amount)
	if math.Abs(amount-rounded) < 0.005 {
		return s.FormatIndianInt(int64(rounded))
	}

	whole := int64(amount)
	frac := int64(math.Round((amount - float64(whole)) * 100))
	if frac < 0 {
		frac = -frac
	}
	return s.FormatIndianInt(whole) + "." + padTwo(frac)
}

func padTwo(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
