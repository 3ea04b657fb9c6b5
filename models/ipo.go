package models

// ExchangePlatform identifies the listing segment an IPO belongs to.
type ExchangePlatform string

const (
	PlatformMainboard ExchangePlatform = "Mainboard"
	PlatformSME       ExchangePlatform = "SME"
)

// GMPStatus describes the state of a grey-market-premium lookup.
type GMPStatus string

const (
	GMPStatusLive   GMPStatus = "Live"
	GMPStatusTBD    GMPStatus = "TBD"
	GMPStatusClosed GMPStatus = "Closed"
	GMPStatusError  GMPStatus = "Error"
	GMPStatusNoURL  GMPStatus = "NoURL"
)

// GMPQuote carries the latest grey-market premium reading for an IPO.
// Value is nil unless Status is Live.
type GMPQuote struct {
	Value  *string   `json:"value"`
	Status GMPStatus `json:"status"`
	URL    *string   `json:"url,omitempty"`
}

// ApplicationTier holds the lot count, share count and rupee amount an
// investor commits at one application tier.
type ApplicationTier struct {
	Lots   int64 `json:"lots"`
	Shares int64 `json:"shares"`
	Amount int64 `json:"amount"`
}

// ApplicationTiers groups the per-category application sizes. The whole
// block is either fully computed or absent; individual tiers are never
// populated from inconsistent inputs.
type ApplicationTiers struct {
	RetailMin ApplicationTier `json:"retailMin"`
	RetailMax ApplicationTier `json:"retailMax"`
	SHNIMin   ApplicationTier `json:"sHniMin"`
	SHNIMax   ApplicationTier `json:"sHniMax"`
	BHNIMin   ApplicationTier `json:"bHniMin"`
}

// AllocationSplit holds the NII sub-quota breakdown and maximum allottee
// counts. Max* counters stay nil when their divisor is unknown or zero;
// they are never defaulted. Derived is false when the source page supplied
// the split directly.
type AllocationSplit struct {
	NIIShares          int64  `json:"niiShares"`
	BNIIShares         int64  `json:"bNiiShares"`
	SNIIShares         int64  `json:"sNiiShares"`
	RetailShares       *int64 `json:"retailShares,omitempty"`
	MaxBNIIAllottees   *int64 `json:"maxBNiiAllottees,omitempty"`
	MaxSNIIAllottees   *int64 `json:"maxSNiiAllottees,omitempty"`
	MaxRetailAllottees *int64 `json:"maxRetailAllottees,omitempty"`
	BNIISharesDisplay  string `json:"bNiiSharesDisplay,omitempty"`
	SNIISharesDisplay  string `json:"sNiiSharesDisplay,omitempty"`
	Derived            bool   `json:"derived"`
}

// IPORecord is the combined record served to the dashboard. Date fields keep
// the display strings published by the source page; fields the scrape could
// not establish stay nil rather than carrying sentinel text.
type IPORecord struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ExchangePlatform ExchangePlatform `json:"exchangePlatform"`
	Status           string           `json:"status"`
	Link             string           `json:"link"`

	IssueSize     *string `json:"issueSize"`
	PriceRange    *string `json:"priceRange"`
	OpenDate      *string `json:"openDate"`
	CloseDate     *string `json:"closeDate"`
	ListingDate   *string `json:"listingDate"`
	AllotmentDate *string `json:"allotmentDate"`
	RefundDate    *string `json:"refundDate"`
	CreditDate    *string `json:"creditDate"`
	LotSize       *int64  `json:"lotSize"`

	GMP          GMPQuote          `json:"gmp"`
	Applications *ApplicationTiers `json:"applications"`
	Allocation   *AllocationSplit  `json:"allocation"`
}

// AllIPOsResponse is the payload for the combined listing endpoint.
type AllIPOsResponse struct {
	Mainboard []IPORecord `json:"mainboard"`
	SME       []IPORecord `json:"sme"`
	Total     int         `json:"total"`
}
