package services

import (
	"fmt"
	"sort"

	"github.com/ipowatch/dashboard-backend/models"
	"github.com/sirupsen/logrus"
)

// Optimization summary statuses surfaced to the dashboard.
const (
	OptimizationStatusSuccess      = "success"
	OptimizationStatusInsufficient = "insufficient"
)

// FundOptimizer computes a minimal set of pairwise transfers that covers
// every account's funding shortfall from the surpluses of the others.
// Matching is greedy largest-first: deterministic and small, though not
// guaranteed globally optimal. Pure; safe for concurrent use.
type FundOptimizer struct {
	utility *UtilityService
}

// NewFundOptimizer creates a new fund transfer optimizer
func NewFundOptimizer(utility *UtilityService) *FundOptimizer {
	return &FundOptimizer{utility: utility}
}

// balanceState tracks one account's remaining surplus or shortfall during
// matching. Index preserves input order so equal amounts tie-break stably.
type balanceState struct {
	name      string
	remaining float64
	index     int
}

// Optimize classifies every account, checks collective feasibility, and
// when feasible emits one transfer per draw of a surplus against a
// shortfall. Identical input yields an identical transfer list.
func (o *FundOptimizer) Optimize(accounts []models.Account) *models.OptimizationResult {
	result := &models.OptimizationResult{
		AccountAnalysis:      make([]models.AccountAnalysis, 0, len(accounts)),
		RecommendedTransfers: []models.Transfer{},
	}

	var shortfalls, surpluses []balanceState

	for i, account := range accounts {
		shortfall := account.Shortfall()
		surplus := account.Surplus()

		result.TotalRequired += account.RequiredAmount
		result.TotalAvailable += account.Balance
		result.TotalShortfall += shortfall
		result.TotalSurplus += surplus

		result.AccountAnalysis = append(result.AccountAnalysis, models.AccountAnalysis{
			Account:   account,
			Shortfall: shortfall,
			Surplus:   surplus,
		})

		if shortfall > 0 {
			shortfalls = append(shortfalls, balanceState{name: account.Name, remaining: shortfall, index: i})
		} else if surplus > 0 {
			surpluses = append(surpluses, balanceState{name: account.Name, remaining: surplus, index: i})
		}
	}

	result.CanProceed = result.TotalSurplus >= result.TotalShortfall

	if !result.CanProceed {
		missing := result.TotalShortfall - result.TotalSurplus
		result.Summary = models.OptimizationSummary{
			Message: fmt.Sprintf("Insufficient total funds. You need ₹%s more.", o.utility.FormatIndianAmount(missing)),
			Status:  OptimizationStatusInsufficient,
		}
		return result
	}

	if len(shortfalls) == 0 {
		result.Summary = models.OptimizationSummary{
			Message: "All accounts are sufficiently funded. No transfers needed.",
			Status:  OptimizationStatusSuccess,
		}
		return result
	}

	// Largest amounts first; stable sort keeps input order among ties so
	// the transfer plan is reproducible.
	sort.SliceStable(shortfalls, func(a, b int) bool {
		return shortfalls[a].remaining > shortfalls[b].remaining
	})
	sort.SliceStable(surpluses, func(a, b int) bool {
		return surpluses[a].remaining > surpluses[b].remaining
	})

	donor := 0
	for i := range shortfalls {
		need := &shortfalls[i]
		for need.remaining > 0 && donor < len(surpluses) {
			from := &surpluses[donor]

			draw := from.remaining
			if need.remaining < draw {
				draw = need.remaining
			}

			result.RecommendedTransfers = append(result.RecommendedTransfers, models.Transfer{
				From:   from.name,
				To:     need.name,
				Amount: draw,
				Reason: fmt.Sprintf("Covers ₹%s of %s's shortfall", o.utility.FormatIndianAmount(draw), need.name),
			})
			result.TotalTransferAmount += draw

			need.remaining -= draw
			from.remaining -= draw
			if from.remaining == 0 {
				donor++
			}
		}
	}

	result.TransferCount = len(result.RecommendedTransfers)
	result.Summary = models.OptimizationSummary{
		Message: fmt.Sprintf("Funds can be arranged with %d transfer(s) totalling ₹%s.",
			result.TransferCount, o.utility.FormatIndianAmount(result.TotalTransferAmount)),
		Status: OptimizationStatusSuccess,
	}

	logrus.WithFields(logrus.Fields{
		"component":       "FundOptimizer",
		"accounts":        len(accounts),
		"transfers":       result.TransferCount,
		"total_shortfall": result.TotalShortfall,
		"total_surplus":   result.TotalSurplus,
	}).Debug("Computed fund transfer plan")

	return result
}
