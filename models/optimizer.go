package models

// Account is one bank/broker account in a fund optimization request.
// Names are used as transfer endpoints and should be unique within a
// request; duplicates make the resulting transfer list ambiguous.
type Account struct {
	Name           string  `json:"name"`
	Balance        float64 `json:"balance"`
	RequiredAmount float64 `json:"requiredAmount"`
}

// Shortfall returns how much the account is missing, never negative.
func (a Account) Shortfall() float64 {
	if d := a.RequiredAmount - a.Balance; d > 0 {
		return d
	}
	return 0
}

// Surplus returns how much the account holds beyond its requirement,
// never negative.
func (a Account) Surplus() float64 {
	if d := a.Balance - a.RequiredAmount; d > 0 {
		return d
	}
	return 0
}

// AccountAnalysis is the per-account classification in an optimization result.
type AccountAnalysis struct {
	Account
	Shortfall float64 `json:"shortfall"`
	Surplus   float64 `json:"surplus"`
}

// Transfer is one recommended pairwise fund movement. Amount is always
// positive; transfers are computed per request and never persisted.
type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// OptimizationSummary is the human-readable outcome shown by the dashboard.
// Message content is part of the API contract, not just its structure.
type OptimizationSummary struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// OptimizationResult is the full response of the fund transfer optimizer.
type OptimizationResult struct {
	RequestID            string              `json:"requestId,omitempty"`
	CanProceed           bool                `json:"canProceed"`
	TotalRequired        float64             `json:"totalRequired"`
	TotalAvailable       float64             `json:"totalAvailable"`
	TotalShortfall       float64             `json:"totalShortfall"`
	TotalSurplus         float64             `json:"totalSurplus"`
	AccountAnalysis      []AccountAnalysis   `json:"accountAnalysis"`
	RecommendedTransfers []Transfer          `json:"recommendedTransfers"`
	TransferCount        int                 `json:"transferCount"`
	TotalTransferAmount  float64             `json:"totalTransferAmount"`
	Summary              OptimizationSummary `json:"summary"`
}
