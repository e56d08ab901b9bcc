package extract

// Validate checks an extracted field set: all four fields must be present,
// and both monetary amounts must be non-negative. The first offending field
// is reported.
func Validate(f *W2Fields) error {
	if f == nil {
		return &ValidationError{Field: "ein", Reason: "is missing"}
	}
	if f.EIN == "" {
		return &ValidationError{Field: "ein", Reason: "is missing"}
	}
	if f.SSN == "" {
		return &ValidationError{Field: "ssn", Reason: "is missing"}
	}
	if f.WagesBox1 == nil {
		return &ValidationError{Field: "wages_box1", Reason: "is missing"}
	}
	if f.WagesBox1.IsNegative() {
		return &ValidationError{Field: "wages_box1", Reason: "must not be negative"}
	}
	if f.FederalTaxWithheldBox2 == nil {
		return &ValidationError{Field: "federal_tax_withheld_box2", Reason: "is missing"}
	}
	if f.FederalTaxWithheldBox2.IsNegative() {
		return &ValidationError{Field: "federal_tax_withheld_box2", Reason: "must not be negative"}
	}
	return nil
}
