package services

import (
	"context"
	"testing"
	"time"

	"github.com/ipowatch/dashboard-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIPOService() (*IPOService, *Cache[[]models.IPORecord]) {
	utility := NewUtilityService()
	cache := NewCache[[]models.IPORecord]("ipo_test", 5*time.Hour, time.Hour)

	service := &IPOService{
		allocation: NewAllocationService(utility),
		calculator: NewApplicationCalculator(utility),
		utility:    utility,
		cache:      cache,
	}
	return service, cache
}

func TestApplicationTiersPrefersPageRows(t *testing.T) {
	service, _ := newTestIPOService()

	detail := &RawIPODetail{
		PriceRange: "₹90 - ₹95",
		ApplicationRows: map[string]models.ApplicationTier{
			"retail-min": {Lots: 2, Shares: 3200, Amount: 304000},
			"retail-max": {Lots: 2, Shares: 3200, Amount: 304000},
			"s-hni-min":  {Lots: 3, Shares: 4800, Amount: 456000},
			"s-hni-max":  {Lots: 6, Shares: 9600, Amount: 912000},
			"b-hni-min":  {Lots: 7, Shares: 11200, Amount: 1064000},
		},
	}

	tiers := service.applicationTiers(detail, 1600)
	require.NotNil(t, tiers)
	assert.Equal(t, int64(304000), tiers.RetailMin.Amount)
	assert.Equal(t, int64(912000), tiers.SHNIMax.Amount)
	assert.Equal(t, int64(7), tiers.BHNIMin.Lots)
}

func TestApplicationTiersFallsBackToCalculator(t *testing.T) {
	service, _ := newTestIPOService()

	// No published table rows: tiers come from the price band.
	detail := &RawIPODetail{
		PriceRange:      "₹90 - ₹95",
		ApplicationRows: map[string]models.ApplicationTier{},
	}

	tiers := service.applicationTiers(detail, 1600)
	require.NotNil(t, tiers)
	assert.Equal(t, int64(304000), tiers.RetailMin.Amount)
	assert.Equal(t, int64(7), tiers.BHNIMin.Lots)
}

func TestApplicationTiersIncompleteRowsFallBack(t *testing.T) {
	service, _ := newTestIPOService()

	// A partial table is not trusted; derivation from the band wins.
	detail := &RawIPODetail{
		PriceRange: "₹90 - ₹95",
		ApplicationRows: map[string]models.ApplicationTier{
			"retail-min": {Lots: 2, Shares: 3200, Amount: 304000},
		},
	}

	tiers := service.applicationTiers(detail, 1600)
	require.NotNil(t, tiers)
	assert.Equal(t, int64(3), tiers.SHNIMin.Lots)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "1", recordID(models.PlatformMainboard, 0))
	assert.Equal(t, "3", recordID(models.PlatformMainboard, 2))
	assert.Equal(t, "sme-active-1", recordID(models.PlatformSME, 0))
	assert.Equal(t, "sme-active-4", recordID(models.PlatformSME, 3))
}

func TestCacheKeyFor(t *testing.T) {
	assert.Equal(t, "mainboard_ipos", cacheKeyFor(models.PlatformMainboard))
	assert.Equal(t, "sme_ipos", cacheKeyFor(models.PlatformSME))
}

func TestCachedRecordsMissWithoutSnapshot(t *testing.T) {
	service, _ := newTestIPOService()

	_, hit := service.CachedRecords(models.PlatformMainboard)
	assert.False(t, hit)
}

func TestRefreshGMPQuotesDoesNotExtendListingTTL(t *testing.T) {
	service, cache := newTestIPOService()

	clock := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	cache.Put(mainboardCacheKey, []models.IPORecord{
		{ID: "1", Name: "Sample IPO", GMP: models.GMPQuote{Status: models.GMPStatusNoURL}},
	})

	// A refresh every 30 minutes must not keep restamping the snapshot;
	// it expires on the 5 hour schedule regardless of the refresh loop.
	for i := 0; i < 9; i++ {
		clock = clock.Add(30 * time.Minute)
		service.RefreshGMPQuotes(context.Background())

		_, hit := service.CachedRecords(models.PlatformMainboard)
		assert.True(t, hit)
	}

	clock = clock.Add(30 * time.Minute)
	_, hit := service.CachedRecords(models.PlatformMainboard)
	assert.False(t, hit)
}

func TestRefreshGMPQuotesSkipsRecordsWithoutURL(t *testing.T) {
	service, cache := newTestIPOService()

	cache.Put(mainboardCacheKey, []models.IPORecord{
		{ID: "1", Name: "Sample IPO", GMP: models.GMPQuote{Status: models.GMPStatusNoURL}},
	})

	refreshed := service.RefreshGMPQuotes(context.Background())
	assert.Equal(t, 0, refreshed)

	records, hit := service.CachedRecords(models.PlatformMainboard)
	require.True(t, hit)
	assert.Equal(t, models.GMPStatusNoURL, records[0].GMP.Status)
}
