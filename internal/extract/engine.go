package extract

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ObjectRef locates a stored document.
type ObjectRef struct {
	Bucket string
	Key    string
}

// Fetcher retrieves a stored object's content.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type Config struct {
	Pdftotext string
	Pdftk     string
}

// Engine extracts W-2 fields from stored PDF documents. It tries the form
// fields embedded in the PDF first and falls back to pattern matching over
// the plain-text rendering when the document carries no recognizable fields.
type Engine struct {
	fetcher Fetcher
	runner  Runner
	cfg     Config
}

func NewEngine(f Fetcher, r Runner, cfg Config) *Engine {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftk == "" {
		cfg.Pdftk = "pdftk"
	}
	return &Engine{fetcher: f, runner: r, cfg: cfg}
}

// Extract downloads the document, extracts the four W-2 fields and validates
// them. It returns *ExtractionError when the document cannot be retrieved or
// parsed, and *ValidationError when fields are absent or invalid.
func (e *Engine) Extract(ctx context.Context, ref ObjectRef) (*W2Fields, error) {
	rc, err := e.fetcher.Fetch(ctx, ref.Bucket, ref.Key)
	if err != nil {
		return nil, &ExtractionError{Stage: "fetch", Err: err}
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "w2-*.pdf")
	if err != nil {
		return nil, &ExtractionError{Stage: "spool", Err: err}
	}
	path := tmp.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Warn("failed to remove temp document", "path", path, "error", rmErr)
		}
	}()

	_, err = io.Copy(tmp, rc)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, &ExtractionError{Stage: "spool", Err: err}
	}

	fields, ok := e.formFields(ctx, path)
	if !ok {
		text, err := e.plainText(ctx, path)
		if err != nil {
			return nil, err
		}
		fields = parseText(text)
	}

	if err := Validate(fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// formFields runs pdftk's field dump and maps known field names onto the
// W-2 fields. ok is false when the tool fails or no field is recognized,
// which sends the caller down the text fallback.
func (e *Engine) formFields(ctx context.Context, path string) (*W2Fields, bool) {
	out, _, err := e.runner.Run(ctx, e.cfg.Pdftk, path, "dump_data_fields")
	if err != nil {
		slog.Debug("form field dump failed, falling back to text", "error", err)
		return nil, false
	}

	fields := &W2Fields{}
	found := false

	var name string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "FieldName:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "FieldName:"))
		case strings.HasPrefix(line, "FieldValue:"):
			value := strings.TrimSpace(strings.TrimPrefix(line, "FieldValue:"))
			if name != "" && value != "" && setField(fields, name, value) {
				found = true
			}
		case line == "---":
			name = ""
		}
	}

	if !found {
		return nil, false
	}
	return fields, true
}

func (e *Engine) plainText(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		slog.Error("text rendering failed", "stderr", truncate(string(errb), 8<<10))
		return "", &ExtractionError{Stage: "render", Err: err}
	}
	return string(out), nil
}

// fieldAliases maps the form field names seen across W-2 PDF variants onto
// the canonical field keys.
var fieldAliases = map[string]string{
	"EIN":                         "ein",
	"EmployerEIN":                 "ein",
	"employer_ein":                "ein",
	"SSN":                         "ssn",
	"EmployeeSSN":                 "ssn",
	"employee_ssn":                "ssn",
	"Box1":                        "wages_box1",
	"WagesBox1":                   "wages_box1",
	"wages_tips_other_comp":       "wages_box1",
	"Box2":                        "federal_tax_withheld_box2",
	"FederalTaxWithheldBox2":      "federal_tax_withheld_box2",
	"federal_income_tax_withheld": "federal_tax_withheld_box2",
}

func setField(f *W2Fields, name, value string) bool {
	switch fieldAliases[name] {
	case "ein":
		f.EIN = value
	case "ssn":
		f.SSN = value
	case "wages_box1":
		d, err := parseAmount(value)
		if err != nil {
			return false
		}
		f.WagesBox1 = d
	case "federal_tax_withheld_box2":
		d, err := parseAmount(value)
		if err != nil {
			return false
		}
		f.FederalTaxWithheldBox2 = d
	default:
		return false
	}
	return true
}
