package fields

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
)

// Field identifies one of the values pulled out of a document
type Field string

const (
	FieldSurname   Field = "surname"
	FieldBirthYear Field = "birth year"
	FieldPhone     Field = "phone number"
)

// ErrExtraction is matched by every extraction failure
var ErrExtraction = errors.New("field extraction failed")

// spaceClass is the body of a character class matching Unicode whitespace.
// RE2's \s alone is ASCII only and leaves out \v.
const spaceClass = `\s\v\x1c-\x1f\x{85}\p{Z}`

var (
	birthDatePattern = regexp.MustCompile(`Date of Birth:[` + spaceClass + `]*(\d{2})/(\d{2})/(\d{4})`)
	phonePattern     = regexp.MustCompile(`\(?\d{3}\)?[-` + spaceClass + `]?\d{3}[-` + spaceClass + `]?\d{4}`)
	nonDigitPattern  = regexp.MustCompile(`\D`)

	// lineBreaks mirrors the set of characters treated as line boundaries
	// when splitting extracted page text.
	lineBreaks = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\v", "\n",
		"\f", "\n",
		"\x1c", "\n",
		"\x1d", "\n",
		"\x1e", "\n",
		"\u0085", "\n",
		"\u2028", "\n",
		"\u2029", "\n",
	)
)

// Fields holds a complete set of identity values for one document
type Fields struct {
	Surname     string
	BirthYear   string
	PhoneDigits string
}

// Filename returns the renamed document name for these fields
func (f Fields) Filename() string {
	return fmt.Sprintf("%s_%s_%s.pdf", strings.ToLower(f.Surname), f.BirthYear, f.PhoneDigits)
}

// MissingFieldsError reports which fields could not be located
type MissingFieldsError struct {
	Missing []Field
}

func (e *MissingFieldsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return "missing " + strings.Join(names, ", ")
}

// Is reports ErrExtraction as the category of every MissingFieldsError
func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrExtraction
}

// Extractor pulls fields out of decoded page text. The zero value is usable;
// Logger receives debug diagnostics only.
type Extractor struct {
	Logger *slog.Logger
}

// NewExtractor creates an extractor that writes diagnostics to logger
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{Logger: logger}
}

// Extract runs the field extraction with no diagnostics
func Extract(pages []string) (Fields, error) {
	return (&Extractor{}).Extract(pages)
}

// Extract locates surname, birth year and phone digits in the page text.
// A result is returned only when all three are found.
func (x *Extractor) Extract(pages []string) (Fields, error) {
	text := joinPages(pages)

	surname, okSurname := surnameFrom(text)
	year, okYear := birthYearFrom(text)
	phones := phonePattern.FindAllString(text, -1)
	phone, okPhone := phoneFrom(phones)

	if x.Logger != nil {
		x.Logger.Debug("fields.extract",
			"pages", len(pages),
			"text_length", len(text),
			"surname", surname,
			"birth_year", year,
			"phone_matches", phones,
		)
	}

	var missing []Field
	if !okSurname {
		missing = append(missing, FieldSurname)
	}
	if !okYear {
		missing = append(missing, FieldBirthYear)
	}
	if !okPhone {
		missing = append(missing, FieldPhone)
	}
	if len(missing) > 0 {
		return Fields{}, &MissingFieldsError{Missing: missing}
	}

	return Fields{Surname: surname, BirthYear: year, PhoneDigits: phone}, nil
}

func joinPages(pages []string) string {
	var b strings.Builder
	for _, page := range pages {
		b.WriteString(page)
		b.WriteByte('\n')
	}
	return b.String()
}

// surnameFrom returns the last token of the first non-blank line
func surnameFrom(text string) (string, bool) {
	for _, line := range strings.Split(lineBreaks.Replace(text), "\n") {
		line = strings.TrimFunc(line, isSpace)
		if line == "" {
			continue
		}
		tokens := strings.FieldsFunc(line, isSpace)
		if len(tokens) == 0 {
			return "", false
		}
		return tokens[len(tokens)-1], true
	}
	return "", false
}

// isSpace extends unicode.IsSpace with the ASCII separators \x1c-\x1f
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func birthYearFrom(text string) (string, bool) {
	m := birthDatePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[3], true
}

// phoneFrom skips the first match; only the second one is used
func phoneFrom(matches []string) (string, bool) {
	if len(matches) < 2 {
		return "", false
	}
	return nonDigitPattern.ReplaceAllString(matches[1], ""), true
}
