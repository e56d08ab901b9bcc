package extract

import (
	"strings"

	"github.com/shopspring/decimal"
)

// W2Fields holds the four fields pulled from a W-2 form. Monetary amounts
// are fixed-point decimals and marshal as decimal strings on the wire.
type W2Fields struct {
	EIN                    string           `json:"ein"`
	SSN                    string           `json:"ssn"`
	WagesBox1              *decimal.Decimal `json:"wages_box1"`
	FederalTaxWithheldBox2 *decimal.Decimal `json:"federal_tax_withheld_box2"`
}

// parseAmount normalizes a monetary string ("$50,000.00") into a decimal.
func parseAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
