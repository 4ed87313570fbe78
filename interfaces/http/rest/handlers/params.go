package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// decimalParam reads a decimal query parameter, falling back when absent
func decimalParam(r *http.Request, name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.NewValidationError("invalid " + name + ": " + raw)
	}
	return d, nil
}

// intParam reads an integer query parameter, falling back when absent
func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError("invalid " + name + ": " + raw)
	}
	return n, nil
}
