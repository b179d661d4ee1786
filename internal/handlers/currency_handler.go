package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendsight/internal/currency"
	apperrors "spendsight/internal/errors"
)

// CurrencyHandler exposes the static conversion table.
type CurrencyHandler struct {
	baseCurrency string
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(baseCurrency string) *CurrencyHandler {
	return &CurrencyHandler{baseCurrency: baseCurrency}
}

// CurrencyInfo describes one supported currency.
type CurrencyInfo struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// ConversionResponse is the result of a conversion.
type ConversionResponse struct {
	Amount    string `json:"amount"`
	From      string `json:"from"`
	To        string `json:"to"`
	Rate      string `json:"rate"`
	Converted string `json:"converted"`
	Formatted string `json:"formatted"`
}

// ListCurrencies returns the supported currencies
// @Summary     List currencies
// @Tags        currencies
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} CurrencyInfo "Supported currencies"
// @Router      /currencies [get]
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	codes := currency.Supported()
	out := make([]CurrencyInfo, 0, len(codes))
	for _, code := range codes {
		out = append(out, CurrencyInfo{Code: code, Symbol: currency.Symbol(code)})
	}
	c.JSON(http.StatusOK, gin.H{"base": h.baseCurrency, "currencies": out})
}

// Convert converts an amount between two currencies
// @Summary     Convert amount
// @Description Convert with the static rate table, rounded to two places
// @Tags        currencies
// @Produce     json
// @Security    BearerAuth
// @Param       amount query string true  "Amount"
// @Param       from   query string true  "Source currency"
// @Param       to     query string false "Target currency (defaults to the base currency)"
// @Success     200 {object} ConversionResponse "Conversion"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /currencies/convert [get]
func (h *CurrencyHandler) Convert(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid amount"))
		return
	}

	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.DefaultQuery("to", h.baseCurrency))
	for _, code := range []string{from, to} {
		if !currency.IsSupported(code) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency: "+code))
			return
		}
	}

	converted := currency.Convert(amount, from, to)
	c.JSON(http.StatusOK, ConversionResponse{
		Amount:    amount.String(),
		From:      from,
		To:        to,
		Rate:      currency.Rate(from, to).String(),
		Converted: converted.StringFixed(2),
		Formatted: currency.Format(converted, to),
	})
}
