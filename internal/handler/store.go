package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/EldonT123/bs-reviews/internal/middleware"
	"github.com/EldonT123/bs-reviews/internal/repository"
	"github.com/EldonT123/bs-reviews/internal/service"
)

// StoreHandler exposes the token and rank-upgrade store.
type StoreHandler struct {
	Store *service.StoreService
}

func NewStoreHandler(store *service.StoreService) *StoreHandler {
	return &StoreHandler{Store: store}
}

// Items lists the purchasable catalog.  Public.
func (h *StoreHandler) Items(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": h.Store.Items()})
}

// Purchase buys an item for the authenticated user with a card or tokens.
func (h *StoreHandler) Purchase(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req service.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	p, err := h.Store.Purchase(c.Request().Context(), acc.Email, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownItem):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown item"})
		case errors.Is(err, service.ErrAlreadyUpgraded):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already at or above this tier"})
		case errors.Is(err, service.ErrPaymentMethod),
			errors.Is(err, service.ErrInvalidCard),
			errors.Is(err, service.ErrCardExpired),
			errors.Is(err, repository.ErrInsufficientTokens):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase failed"})
	}
	return c.JSON(http.StatusCreated, p)
}

// History returns the authenticated user's purchases, newest first.
func (h *StoreHandler) History(c echo.Context) error {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	purchases, err := h.Store.History(acc.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "history failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": purchases})
}
