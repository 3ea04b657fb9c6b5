package services

import (
	"math"

	"github.com/ipowatch/dashboard-backend/models"
)

const (
	// RetailLots and SHNIMinLots are the fixed lot counts for the retail
	// and Small-HNI minimum application tiers.
	RetailLots  = 2
	SHNIMinLots = 3

	// BHNIThresholdRupees is the statutory HNI application threshold of
	// ten lakh rupees. The Big-HNI minimum is the smallest lot count whose
	// amount strictly exceeds it.
	BHNIThresholdRupees = 1_000_000

	// SHNIMaxFactor sizes the Small-HNI maximum tier relative to the
	// Big-HNI minimum lot count. Heuristic band boundary, not a
	// regulatory constant.
	SHNIMaxFactor = 0.8
)

// ApplicationCalculator computes the rupee commitment at each investor
// tier's application size from a price band and a lot size. Pure; safe for
// concurrent use.
type ApplicationCalculator struct {
	utility *UtilityService
}

// NewApplicationCalculator creates a new application amount calculator
func NewApplicationCalculator(utility *UtilityService) *ApplicationCalculator {
	return &ApplicationCalculator{utility: utility}
}

// Calculate returns the per-tier application sizes for the given price band
// text and lot size. The higher bound of the band (or the single fixed
// price) prices every tier. Returns nil when the band or lot size cannot be
// parsed to positive numbers; tiers are never computed against a fallback
// default price.
func (c *ApplicationCalculator) Calculate(priceRange string, lotSize int64) *models.ApplicationTiers {
	_, price, ok := c.utility.ParsePriceBand(priceRange)
	if !ok || lotSize <= 0 {
		return nil
	}

	lotAmount := float64(lotSize) * price
	if lotAmount <= 0 {
		return nil
	}

	// Smallest whole lot count whose amount strictly exceeds the HNI
	// threshold; an exactly-equal amount does not qualify.
	bHNILots := int64(math.Floor(BHNIThresholdRupees/lotAmount)) + 1

	sHNIMaxLots := int64(math.Ceil(SHNIMaxFactor * float64(bHNILots)))

	retail := c.tier(RetailLots, lotSize, price)
	return &models.ApplicationTiers{
		RetailMin: retail,
		RetailMax: retail,
		SHNIMin:   c.tier(SHNIMinLots, lotSize, price),
		SHNIMax:   c.tier(sHNIMaxLots, lotSize, price),
		BHNIMin:   c.tier(bHNILots, lotSize, price),
	}
}

func (c *ApplicationCalculator) tier(lots, lotSize int64, price float64) models.ApplicationTier {
	shares := lots * lotSize
	return models.ApplicationTier{
		Lots:   lots,
		Shares: shares,
		Amount: int64(math.Round(float64(shares) * price)),
	}
}
