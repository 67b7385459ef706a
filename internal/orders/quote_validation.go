package orders

import (
	"strings"

	"github.com/arjundesai/medikart-backend/pkg/enums"
	pkgerrors "github.com/arjundesai/medikart-backend/pkg/errors"
)

// ValidateQuote enforces the line-level rules for a quote submission. Mode
// accept requires every line to be available. Mode partial requires every
// line to name a medicine or a brand, and to carry price and quantity
// whenever the line is available.
func ValidateQuote(mode enums.QuoteMode, lines []QuoteLineInput) error {
	if !mode.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidQuote, "unknown quote mode")
	}
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuote, "quote must contain at least one line")
	}

	for i := range lines {
		if err := validateQuoteLine(mode, lines[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateQuoteLine(mode enums.QuoteMode, line QuoteLineInput) error {
	if mode == enums.QuoteModeAccept && !line.Available {
		return pkgerrors.New(pkgerrors.CodeInvalidQuote, "accept-mode quote cannot contain unavailable lines")
	}

	if !hasText(line.MedicineName) && !hasText(line.Brand) {
		return pkgerrors.New(pkgerrors.CodeInvalidQuote, "quote line must carry a medicine name or a brand")
	}

	if line.Available {
		if line.Price == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidQuote, "available line must carry a price")
		}
		if line.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeInvalidQuote, "line price cannot be negative")
		}
		if line.Quantity == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidQuote, "available line must carry a quantity")
		}
		if *line.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeInvalidQuote, "line quantity must be at least 1")
		}
	}
	return nil
}

func hasText(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}
