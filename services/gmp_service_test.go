package services

import (
	"context"
	"testing"
	"time"

	"github.com/ipowatch/dashboard-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQuoteTTL = 30 * time.Minute

func TestClassifyGMPReadingLive(t *testing.T) {
	quote := classifyGMPReading("250  (13.64%)", "IPO GMP trend page content")

	assert.Equal(t, models.GMPStatusLive, quote.Status)
	require.NotNil(t, quote.Value)
	assert.Equal(t, "250 (13.64%)", *quote.Value)
}

func TestClassifyGMPReadingTBD(t *testing.T) {
	for _, cell := range []string{"", "-", "--"} {
		quote := classifyGMPReading(cell, "IPO GMP trend page content")
		assert.Equal(t, models.GMPStatusTBD, quote.Status)
		assert.Nil(t, quote.Value)
	}
}

func TestClassifyGMPReadingClosed(t *testing.T) {
	quote := classifyGMPReading("250 (13.64%)", "Note: GMP closed for this IPO")

	// A closed tracker wins even when a stale value is still rendered.
	assert.Equal(t, models.GMPStatusClosed, quote.Status)
	assert.Nil(t, quote.Value)
}

func TestGetGMPWithoutURL(t *testing.T) {
	cache := NewCache[models.GMPQuote]("gmp_test", testQuoteTTL, testQuoteTTL)
	service := NewGMPService(nil, cache, testQuoteTTL)

	quote := service.GetGMP(context.Background(), "Sample IPO", "")
	assert.Equal(t, models.GMPStatusNoURL, quote.Status)
	assert.Equal(t, 0, cache.Len())
}

func TestGetGMPServesCachedQuote(t *testing.T) {
	cache := NewCache[models.GMPQuote]("gmp_test", testQuoteTTL, testQuoteTTL)
	service := NewGMPService(nil, cache, testQuoteTTL)

	trackerURL := "https://www.investorgain.com/chr-gmp/sample-ipo/1/"
	value := "45 (9.47%)"
	cached := models.GMPQuote{Value: &value, Status: models.GMPStatusLive}
	cache.Put(trackerURL, cached)

	// A cache hit returns without touching the nil pool.
	quote := service.GetGMP(context.Background(), "Sample IPO", trackerURL)
	assert.Equal(t, cached, quote)
}

func TestGMPQuotesKeyedByTrackerURL(t *testing.T) {
	cache := NewCache[models.GMPQuote]("gmp_test", testQuoteTTL, testQuoteTTL)
	service := NewGMPService(nil, cache, testQuoteTTL)

	trackerURL := "https://www.investorgain.com/chr-gmp/sample-ipo/1/"
	value := "45 (9.47%)"
	cache.Put(trackerURL, models.GMPQuote{Value: &value, Status: models.GMPStatusLive})

	// The quote lives under its tracker URL, not the IPO name; a record
	// whose link changes cannot inherit another page's quote.
	_, hit := cache.Get("Sample IPO")
	assert.False(t, hit)

	quote := service.GetGMP(context.Background(), "Renamed IPO", trackerURL)
	assert.Equal(t, models.GMPStatusLive, quote.Status)
}
