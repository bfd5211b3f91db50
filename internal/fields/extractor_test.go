package fields

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const robinsonText = "ELBERT W. ROBINSON\n" +
	"Date of Birth: 08/06/1972\n" +
	"First Phone: 281-111-1111\n" +
	"Second Phone: (832)882-4384\n"

func TestExtract_Example(t *testing.T) {
	got, err := Extract([]string{robinsonText})
	require.NoError(t, err)

	assert.Equal(t, "ROBINSON", got.Surname)
	assert.Equal(t, "1972", got.BirthYear)
	assert.Equal(t, "8328824384", got.PhoneDigits)
	assert.Equal(t, "robinson_1972_8328824384.pdf", got.Filename())
}

func TestExtract_Success(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  Fields
	}{
		{
			name: "leading blank lines are ignored",
			pages: []string{"\n\n   \n  Jane Q Public  \nDate of Birth: 01/02/1990\n" +
				"555-000-0000 then 5551234567"},
			want: Fields{Surname: "Public", BirthYear: "1990", PhoneDigits: "5551234567"},
		},
		{
			name:  "single token name line",
			pages: []string{"Madonna\nDate of Birth:12/31/1958\n(111) 222-3333\n(444) 555-6666\n"},
			want:  Fields{Surname: "Madonna", BirthYear: "1958", PhoneDigits: "4445556666"},
		},
		{
			name: "fields split across pages",
			pages: []string{
				"JOHN SMITH\nDate of Birth: 03/04/1980",
				"Home 212 555 0101",
				"Cell 646-555-0199",
			},
			want: Fields{Surname: "SMITH", BirthYear: "1980", PhoneDigits: "6465550199"},
		},
		{
			name:  "first date of birth marker wins",
			pages: []string{"A B\nDate of Birth: 01/01/1970\nDate of Birth: 02/02/1999\n111-111-1111\n222-222-2222"},
			want:  Fields{Surname: "B", BirthYear: "1970", PhoneDigits: "2222222222"},
		},
		{
			name:  "impossible calendar values are accepted",
			pages: []string{"A B\nDate of Birth: 13/45/2001\n111-111-1111\n222-222-2222"},
			want:  Fields{Surname: "B", BirthYear: "2001", PhoneDigits: "2222222222"},
		},
		{
			name:  "only the second phone is used",
			pages: []string{"A B\nDate of Birth: 01/01/1970\n111-111-1111\n222-222-2222\n333-333-3333"},
			want:  Fields{Surname: "B", BirthYear: "1970", PhoneDigits: "2222222222"},
		},
		{
			name:  "empty pages are kept as line breaks",
			pages: []string{"", "Ann Lee", "", "Date of Birth: 05/06/1971 111-111-1111 222-222-2222"},
			want:  Fields{Surname: "Lee", BirthYear: "1971", PhoneDigits: "2222222222"},
		},
		{
			name:  "carriage return line endings",
			pages: []string{"Ann Lee\r\nDate of Birth: 05/06/1971\r\n111-111-1111\r\n222-222-2222\r\n"},
			want:  Fields{Surname: "Lee", BirthYear: "1971", PhoneDigits: "2222222222"},
		},
		{
			name:  "non-breaking spaces",
			pages: []string{"Ann\u00a0Lee\nDate of Birth:\u00a005/06/1971\n111-111-1111\n(832)\u00a0882\u00a04384"},
			want:  Fields{Surname: "Lee", BirthYear: "1971", PhoneDigits: "8328824384"},
		},
		{
			name:  "vertical tab and ideographic space separators",
			pages: []string{"Ann Lee\nDate of Birth:\v\u300005/06/1971\n111-111-1111\n832\v882\u20024384"},
			want:  Fields{Surname: "Lee", BirthYear: "1971", PhoneDigits: "8328824384"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.pages)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_Failure(t *testing.T) {
	tests := []struct {
		name    string
		pages   []string
		missing []Field
	}{
		{
			name:    "no pages",
			pages:   nil,
			missing: []Field{FieldSurname, FieldBirthYear, FieldPhone},
		},
		{
			name:    "only blank pages",
			pages:   []string{"", "  \n\t"},
			missing: []Field{FieldSurname, FieldBirthYear, FieldPhone},
		},
		{
			name:    "missing date of birth marker",
			pages:   []string{"A B\n111-111-1111\n222-222-2222"},
			missing: []Field{FieldBirthYear},
		},
		{
			name:    "marker is case sensitive",
			pages:   []string{"A B\ndate of birth: 01/01/1970\n111-111-1111\n222-222-2222"},
			missing: []Field{FieldBirthYear},
		},
		{
			name:    "malformed date",
			pages:   []string{"A B\nDate of Birth: 1/1/1970\n111-111-1111\n222-222-2222"},
			missing: []Field{FieldBirthYear},
		},
		{
			name:    "single phone",
			pages:   []string{"A B\nDate of Birth: 01/01/1970\n111-111-1111"},
			missing: []Field{FieldPhone},
		},
		{
			name:    "no phones",
			pages:   []string{"A B\nDate of Birth: 01/01/1970"},
			missing: []Field{FieldPhone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.pages)
			require.Error(t, err)
			assert.Equal(t, Fields{}, got)
			assert.True(t, errors.Is(err, ErrExtraction))

			var missingErr *MissingFieldsError
			require.True(t, errors.As(err, &missingErr))
			assert.Equal(t, tt.missing, missingErr.Missing)
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	first, err1 := Extract([]string{robinsonText})
	second, err2 := Extract([]string{robinsonText})
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestMissingFieldsError_Error(t *testing.T) {
	err := &MissingFieldsError{Missing: []Field{FieldSurname, FieldPhone}}
	assert.Equal(t, "missing surname, phone number", err.Error())
}

func TestExtractor_LogsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := NewExtractor(logger).Extract([]string{robinsonText})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "fields.extract")
	assert.Contains(t, out, "birth_year=1972")
	assert.Contains(t, out, "(832)882-4384")
}
