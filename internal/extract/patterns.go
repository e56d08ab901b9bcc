package extract

import "regexp"

// Pattern-based fallback over the plain-text rendering. W-2 layouts put the
// box label immediately before the amount, so each pattern anchors on the
// printed label and captures the first decimal amount after it.
var (
	reEIN      = regexp.MustCompile(`\b(\d{2}-\d{7})\b`)
	reSSN      = regexp.MustCompile(`\b(\d{3}-\d{2}-\d{4})\b`)
	reWages    = regexp.MustCompile(`(?i)wages,?\s+tips,?\s+other\s+comp(?:\.|ensation)?\D*?(-?[\d,]+\.\d{2})`)
	reWithheld = regexp.MustCompile(`(?i)federal\s+income\s+tax\s+withheld\D*?(-?[\d,]+\.\d{2})`)
)

// parseText applies the fixed field patterns to the text rendering of a W-2.
// Fields that don't match stay unset; the validation pass reports them.
func parseText(text string) *W2Fields {
	fields := &W2Fields{}

	if m := reEIN.FindStringSubmatch(text); m != nil {
		fields.EIN = m[1]
	}
	if m := reSSN.FindStringSubmatch(text); m != nil {
		fields.SSN = m[1]
	}
	if m := reWages.FindStringSubmatch(text); m != nil {
		if d, err := parseAmount(m[1]); err == nil {
			fields.WagesBox1 = d
		}
	}
	if m := reWithheld.FindStringSubmatch(text); m != nil {
		if d, err := parseAmount(m[1]); err == nil {
			fields.FederalTaxWithheldBox2 = d
		}
	}

	return fields
}
