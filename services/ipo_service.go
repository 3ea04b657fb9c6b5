package services

import (
	"context"
	"fmt"

	"github.com/ipowatch/dashboard-backend/models"
	"github.com/sirupsen/logrus"
)

// Cache keys for the per-platform listing snapshots.
const (
	mainboardCacheKey = "mainboard_ipos"
	smeCacheKey       = "sme_ipos"
)

// MaxDetailFetches bounds how many detail pages one listing refresh will
// fetch. The dashboard shows current IPOs, not the full historical index,
// and every extra fetch costs a rate-limited round trip.
const MaxDetailFetches = 8

// IPOService assembles dashboard-ready IPO records from the scraper, the
// derivation services and the GMP service, memoizing the result per
// platform. One cached snapshot serves all readers until it expires.
type IPOService struct {
	scraper    *ChittorgarhScraper
	gmp        *GMPService
	allocation *AllocationService
	calculator *ApplicationCalculator
	utility    *UtilityService
	cache      *Cache[[]models.IPORecord]
}

// NewIPOService creates the listing orchestration service.
func NewIPOService(
	scraper *ChittorgarhScraper,
	gmp *GMPService,
	allocation *AllocationService,
	calculator *ApplicationCalculator,
	utility *UtilityService,
	cache *Cache[[]models.IPORecord],
) *IPOService {
	return &IPOService{
		scraper:    scraper,
		gmp:        gmp,
		allocation: allocation,
		calculator: calculator,
		utility:    utility,
		cache:      cache,
	}
}

// GetMainboardIPOs returns the current mainboard listing snapshot, fetching
// it if no fresh snapshot is cached.
func (s *IPOService) GetMainboardIPOs(ctx context.Context) []models.IPORecord {
	return s.getPlatform(ctx, models.PlatformMainboard)
}

// GetSMEIPOs returns the current SME listing snapshot.
func (s *IPOService) GetSMEIPOs(ctx context.Context) []models.IPORecord {
	return s.getPlatform(ctx, models.PlatformSME)
}

// GetAllIPOs returns both platform snapshots in one payload.
func (s *IPOService) GetAllIPOs(ctx context.Context) models.AllIPOsResponse {
	mainboard := s.GetMainboardIPOs(ctx)
	sme := s.GetSMEIPOs(ctx)

	return models.AllIPOsResponse{
		Mainboard: mainboard,
		SME:       sme,
		Total:     len(mainboard) + len(sme),
	}
}

// CachedRecords returns the cached snapshot for a platform without
// triggering a fetch. Used by the background GMP refresh.
func (s *IPOService) CachedRecords(platform models.ExchangePlatform) ([]models.IPORecord, bool) {
	return s.cache.Get(cacheKeyFor(platform))
}

// RefreshGMPQuotes re-fetches the GMP quote for every IPO in the cached
// snapshots and writes the updated records back. Snapshots that are not
// cached are left alone; the next listing request rebuilds them with fresh
// quotes anyway. The write-back keeps the snapshot's original timestamp so
// a running refresh loop cannot keep listing data alive past its TTL.
func (s *IPOService) RefreshGMPQuotes(ctx context.Context) int {
	refreshed := 0

	for _, platform := range []models.ExchangePlatform{models.PlatformMainboard, models.PlatformSME} {
		records, hit := s.CachedRecords(platform)
		if !hit {
			continue
		}

		for i := range records {
			if records[i].GMP.URL == nil {
				continue
			}
			records[i].GMP = s.gmp.Refresh(ctx, records[i].Name, *records[i].GMP.URL)
			refreshed++

			if ctx.Err() != nil {
				break
			}
		}

		s.cache.Replace(cacheKeyFor(platform), records)
	}

	return refreshed
}

func (s *IPOService) getPlatform(ctx context.Context, platform models.ExchangePlatform) []models.IPORecord {
	key := cacheKeyFor(platform)
	if records, hit := s.cache.Get(key); hit {
		return records
	}

	logger := logrus.WithFields(logrus.Fields{
		"component": "IPOService",
		"platform":  platform,
	})

	listings, err := s.scraper.FetchListings(ctx, platform)
	if err != nil {
		// Degrade to an empty listing rather than a failed response; the
		// failure is not cached so the next request retries.
		logger.WithError(err).Error("Failed to fetch IPO listing index")
		return []models.IPORecord{}
	}

	if len(listings) > MaxDetailFetches {
		listings = listings[:MaxDetailFetches]
	}

	records := make([]models.IPORecord, 0, len(listings))
	for i, listing := range listings {
		record := s.buildRecord(ctx, platform, i, listing)
		records = append(records, record)
	}

	s.cache.Put(key, records)
	logger.WithField("count", len(records)).Info("Built IPO listing snapshot")

	return records
}

// buildRecord fetches one detail page and assembles the combined record.
// A failed detail fetch still yields a record; it just carries only the
// listing-page fields.
func (s *IPOService) buildRecord(ctx context.Context, platform models.ExchangePlatform, index int, listing IPOListing) models.IPORecord {
	record := models.IPORecord{
		ID:               recordID(platform, index),
		Name:             listing.Name,
		ExchangePlatform: platform,
		Link:             listing.URL,
		GMP:              models.GMPQuote{Status: models.GMPStatusNoURL},
	}
	if listing.Mentioned {
		record.Status = "Active"
	} else {
		record.Status = "Upcoming"
	}

	detail, err := s.scraper.FetchDetail(ctx, listing.URL)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "IPOService",
			"ipo":       listing.Name,
		}).WithError(err).Warn("Detail page fetch failed, serving listing fields only")
		return record
	}

	record.OpenDate = optionalString(detail.OpenDate)
	record.CloseDate = optionalString(detail.CloseDate)
	record.ListingDate = optionalString(detail.ListingDate)
	record.AllotmentDate = optionalString(detail.AllotmentDate)
	record.RefundDate = optionalString(detail.RefundDate)
	record.CreditDate = optionalString(detail.CreditDate)
	record.IssueSize = optionalString(detail.IssueSize)
	record.PriceRange = optionalString(detail.PriceRange)

	if lotSize, ok := s.utility.ParseLotSize(detail.LotSize); ok {
		record.LotSize = &lotSize
		record.Applications = s.applicationTiers(detail, lotSize)
	}

	var sHNIMinShares, retailMinShares int64
	if record.Applications != nil {
		sHNIMinShares = record.Applications.SHNIMin.Shares
		retailMinShares = record.Applications.RetailMin.Shares
	}
	record.Allocation = s.allocation.Derive(detail.Allocation, sHNIMinShares, retailMinShares)

	record.GMP = s.gmp.GetGMP(ctx, listing.Name, detail.GMPURL)

	return record
}

// applicationTiers prefers the figures the page itself publishes; only when
// the application-size table is absent or incomplete are the tiers computed
// from the price band and lot size.
func (s *IPOService) applicationTiers(detail *RawIPODetail, lotSize int64) *models.ApplicationTiers {
	rows := detail.ApplicationRows
	retailMin, okRetail := rows["retail-min"]
	sHNIMin, okSHNI := rows["s-hni-min"]
	bHNIMin, okBHNI := rows["b-hni-min"]

	if okRetail && okSHNI && okBHNI {
		tiers := &models.ApplicationTiers{
			RetailMin: retailMin,
			RetailMax: retailMin,
			SHNIMin:   sHNIMin,
			BHNIMin:   bHNIMin,
		}
		if retailMax, ok := rows["retail-max"]; ok {
			tiers.RetailMax = retailMax
		}
		if sHNIMax, ok := rows["s-hni-max"]; ok {
			tiers.SHNIMax = sHNIMax
		} else {
			tiers.SHNIMax = sHNIMin
		}
		return tiers
	}

	return s.calculator.Calculate(detail.PriceRange, lotSize)
}

func cacheKeyFor(platform models.ExchangePlatform) string {
	if platform == models.PlatformSME {
		return smeCacheKey
	}
	return mainboardCacheKey
}

func recordID(platform models.ExchangePlatform, index int) string {
	if platform == models.PlatformSME {
		return fmt.Sprintf("sme-active-%d", index+1)
	}
	return fmt.Sprintf("%d", index+1)
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
