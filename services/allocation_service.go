package services

import (
	"math"

	"github.com/ipowatch/dashboard-backend/models"
	"github.com/sirupsen/logrus"
)

// BNIIQuotaRatio is the share of the total NII quota assumed to go to the
// Big-NII sub-category when the source page does not publish the split.
// This is market convention rather than a cited regulatory constant; keep
// it a named constant so it can be revisited against current exchange rules.
const BNIIQuotaRatio = 2.0 / 3.0

// AllocationInput carries the raw allocation figures scraped from an IPO
// detail page. All fields are locale-formatted display strings; empty means
// the page did not present the figure.
type AllocationInput struct {
	NIISharesRaw    string
	BNIISharesRaw   string
	SNIISharesRaw   string
	RetailSharesRaw string

	MaxBNIIRaw   string
	MaxSNIIRaw   string
	MaxRetailRaw string
}

// AllocationService derives Big-NII/Small-NII sub-quotas and maximum
// allottee counts from a scraped NII total. It is a fallback: pages that
// publish the split directly win, and the derivation is skipped.
type AllocationService struct {
	utility *UtilityService
}

// NewAllocationService creates a new allocation derivation service
func NewAllocationService(utility *UtilityService) *AllocationService {
	return &AllocationService{utility: utility}
}

// Derive computes the allocation split for one IPO record.
//
// sHniMinShares and retailMinShares are the minimum application sizes (in
// shares) for the Small-HNI and Retail tiers; a zero divisor leaves the
// corresponding allottee counter unknown rather than computing zero or
// infinity. Returns nil when the NII total cannot be parsed — an absent
// quota must not be misread as a zero quota.
func (s *AllocationService) Derive(in AllocationInput, sHniMinShares, retailMinShares int64) *models.AllocationSplit {
	niiTotal, ok := s.utility.ParseIndianNumber(in.NIISharesRaw)
	if !ok {
		return nil
	}

	// Page-provided split takes precedence over derivation.
	if directBNII, okB := s.utility.ParseIndianNumber(in.BNIISharesRaw); okB {
		if directSNII, okS := s.utility.ParseIndianNumber(in.SNIISharesRaw); okS {
			return s.fromDirect(in, niiTotal, directBNII, directSNII, retailMinShares)
		}
	}

	bNII := int64(math.Round(float64(niiTotal) * BNIIQuotaRatio))
	// The remainder, not a second rounded multiplication, defines the
	// Small-NII quota so the two halves always sum exactly to the total.
	sNII := niiTotal - bNII

	split := &models.AllocationSplit{
		NIIShares:         niiTotal,
		BNIIShares:        bNII,
		SNIIShares:        sNII,
		BNIISharesDisplay: s.utility.FormatIndianInt(bNII) + " shares",
		SNIISharesDisplay: s.utility.FormatIndianInt(sNII) + " shares",
		Derived:           true,
	}

	if sHniMinShares > 0 {
		maxBNII := bNII / sHniMinShares
		maxSNII := sNII / sHniMinShares
		split.MaxBNIIAllottees = &maxBNII
		split.MaxSNIIAllottees = &maxSNII
	}

	s.attachRetail(split, in.RetailSharesRaw, retailMinShares)

	logrus.WithFields(logrus.Fields{
		"component":  "AllocationService",
		"nii_shares": niiTotal,
		"b_nii":      bNII,
		"s_nii":      sNII,
	}).Debug("Derived NII allocation split")

	return split
}

// fromDirect builds the split from page-provided figures, including any
// allottee counts the page printed alongside them.
func (s *AllocationService) fromDirect(in AllocationInput, niiTotal, bNII, sNII, retailMinShares int64) *models.AllocationSplit {
	split := &models.AllocationSplit{
		NIIShares:         niiTotal,
		BNIIShares:        bNII,
		SNIIShares:        sNII,
		BNIISharesDisplay: s.utility.FormatIndianInt(bNII) + " shares",
		SNIISharesDisplay: s.utility.FormatIndianInt(sNII) + " shares",
		Derived:           false,
	}

	if n, ok := s.utility.ParseIndianNumber(in.MaxBNIIRaw); ok {
		split.MaxBNIIAllottees = &n
	}
	if n, ok := s.utility.ParseIndianNumber(in.MaxSNIIRaw); ok {
		split.MaxSNIIAllottees = &n
	}
	if n, ok := s.utility.ParseIndianNumber(in.MaxRetailRaw); ok {
		if r, okR := s.utility.ParseIndianNumber(in.RetailSharesRaw); okR {
			split.RetailShares = &r
		}
		split.MaxRetailAllottees = &n
	} else {
		s.attachRetail(split, in.RetailSharesRaw, retailMinShares)
	}

	return split
}

// attachRetail fills the retail quota and allottee count where the inputs
// allow; a missing or zero retail minimum leaves the count unknown.
func (s *AllocationService) attachRetail(split *models.AllocationSplit, retailSharesRaw string, retailMinShares int64) {
	retailShares, ok := s.utility.ParseIndianNumber(retailSharesRaw)
	if !ok {
		return
	}

	split.RetailShares = &retailShares
	if retailMinShares > 0 {
		maxRetail := retailShares / retailMinShares
		split.MaxRetailAllottees = &maxRetail
	}
}
