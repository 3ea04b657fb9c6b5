package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ipowatch/dashboard-backend/models"
	"github.com/ipowatch/dashboard-backend/services"
	"github.com/sirupsen/logrus"
)

// optimizeRequest is the POST body for the fund optimizer endpoint.
type optimizeRequest struct {
	Accounts []models.Account `json:"accounts"`
}

// OptimizerHandler serves the fund transfer optimization endpoint.
type OptimizerHandler struct {
	optimizer *services.FundOptimizer
}

// NewOptimizerHandler creates a new fund optimizer handler.
func NewOptimizerHandler(optimizer *services.FundOptimizer) *OptimizerHandler {
	return &OptimizerHandler{optimizer: optimizer}
}

// OptimizeAccounts handles POST /api/optimize-accounts. Validation failures
// return 400 with an error message; the computation itself cannot fail.
func (h *OptimizerHandler) OptimizeAccounts(c *fiber.Ctx) error {
	var request optimizeRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body. Expected a JSON object with an accounts array.",
		})
	}

	if len(request.Accounts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one account is required.",
		})
	}

	for _, account := range request.Accounts {
		if account.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Every account needs a name.",
			})
		}
		if account.Balance < 0 || account.RequiredAmount < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Account balances and required amounts cannot be negative.",
			})
		}
	}

	result := h.optimizer.Optimize(request.Accounts)
	result.RequestID = uuid.New().String()

	logrus.WithFields(logrus.Fields{
		"handler":     "OptimizeAccounts",
		"request_id":  result.RequestID,
		"accounts":    len(request.Accounts),
		"can_proceed": result.CanProceed,
		"transfers":   result.TransferCount,
	}).Info("Computed fund optimization")

	return c.JSON(result)
}
