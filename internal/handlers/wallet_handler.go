package handlers

import (
	"net/http"
	"strconv"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/repositories"
	"github.com/labstack/echo/v4"
)

// WalletHandler handles point balance and ledger HTTP requests
type WalletHandler struct {
	walletRepository repositories.WalletRepository
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletRepo repositories.WalletRepository) *WalletHandler {
	return &WalletHandler{walletRepository: walletRepo}
}

// RegisterWalletRoutes registers wallet-related routes
func (h *WalletHandler) RegisterWalletRoutes(g *echo.Group) {
	g.GET("/wallet/balance", h.GetBalance)
	g.GET("/wallet/ledger", h.GetLedger)
}

// GetBalance returns both balance components; clients spend their sum
func (h *WalletHandler) GetBalance(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	wallet, earnings, err := h.walletRepository.GetBalance(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"wallet_balance":   wallet,
		"earnings_balance": earnings,
		"spendable":        wallet + earnings,
	})
}

// GetLedger returns the viewer's most recent point movements
func (h *WalletHandler) GetLedger(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.walletRepository.GetLedgerEntries(currentUserID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}
