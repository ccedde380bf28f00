package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finmate/internal/core"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"9223372036854775807", 9223372036854775807, false},
		{"-3", -3, false},
		{"abc", 0, true},
		{"1.5", 0, true},
		{"", 0, true},
		{"9223372036854775808", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.SetPathValue("id", tt.value)
			got, err := ParseID(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseID(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseID(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseYearMonth(t *testing.T) {
	tests := []struct {
		name       string
		year       string
		month      string
		wantFields []string
	}{
		{"valid", "2024", "1", nil},
		{"december", "2024", "12", nil},
		{"month 13", "2024", "13", []string{"month"}},
		{"month 0", "2024", "0", []string{"month"}},
		{"text month", "2024", "jan", []string{"month"}},
		{"year zero", "0", "1", []string{"year"}},
		{"both bad", "x", "y", []string{"year", "month"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.SetPathValue("year", tt.year)
			r.SetPathValue("month", tt.month)
			_, _, err := ParseYearMonth(r)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			var verrs core.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if len(verrs) != len(tt.wantFields) {
				t.Fatalf("got fields %v, want %v", verrs, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := verrs[f]; !ok {
					t.Errorf("missing field %q in %v", f, verrs)
				}
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?startDate=2024-01-01&endDate=2024-01-31", nil)
	start, end, err := ParseDateRange(r)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if start.String() != "2024-01-01" || end.String() != "2024-01-31" {
		t.Errorf("got %s..%s", start, end)
	}

	r = httptest.NewRequest(http.MethodGet, "/?startDate=2024-02-30&endDate=", nil)
	_, _, err = ParseDateRange(r)
	var verrs core.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if verrs["startDate"] != core.ErrInvalidDate.Error() {
		t.Errorf("startDate = %q", verrs["startDate"])
	}
	if verrs["endDate"] != "endDate is required" {
		t.Errorf("endDate = %q", verrs["endDate"])
	}
}

func TestParseExpenseBody(t *testing.T) {
	today := core.NewDate(2024, 6, 15)

	tests := []struct {
		name       string
		body       string
		wantAmount string
		wantErr    map[string]string
	}{
		{
			name:       "string amount",
			body:       `{"amount":"10.00","category":"Food","date":"2024-01-15"}`,
			wantAmount: "10.00",
		},
		{
			name:       "number amount and null note",
			body:       `{"amount":7,"category":"Food","note":null,"date":"2024-06-15"}`,
			wantAmount: "7.00",
		},
		{
			name:       "ignores unknown and server fields",
			body:       `{"id":5,"createdAt":"2000-01-01","extra":true,"amount":"1","category":"Food","date":"2024-01-15"}`,
			wantAmount: "1.00",
		},
		{
			name:       "exponent number amount",
			body:       `{"amount":1.25e1,"category":"Food","date":"2024-01-15"}`,
			wantAmount: "12.50",
		},
		{
			name:    "exponent number amount with too many decimals",
			body:    `{"amount":1e-3,"category":"Food","date":"2024-01-15"}`,
			wantErr: map[string]string{"amount": core.ErrAmountPrecision.Error()},
		},
		{
			name:    "huge exponent amount",
			body:    `{"amount":1e400,"category":"Food","date":"2024-01-15"}`,
			wantErr: map[string]string{"amount": core.ErrAmountTooLarge.Error()},
		},
		{
			name:    "null amount is missing",
			body:    `{"amount":null,"category":"Food","date":"2024-01-15"}`,
			wantErr: map[string]string{"amount": "amount is required"},
		},
		{
			name:    "garbage amount",
			body:    `{"amount":"ten","category":"Food","date":"2024-01-15"}`,
			wantErr: map[string]string{"amount": core.ErrInvalidAmount.Error()},
		},
		{
			name:    "negative amount",
			body:    `{"amount":"-5","category":"Food","date":"2024-01-15"}`,
			wantErr: map[string]string{"amount": core.ErrNegativeAmount.Error()},
		},
		{
			name:    "future date",
			body:    `{"amount":"5","category":"Food","date":"2024-06-16"}`,
			wantErr: map[string]string{"date": core.ErrFutureDate.Error()},
		},
		{
			name:    "bad date format",
			body:    `{"amount":"5","category":"Food","date":"15/01/2024"}`,
			wantErr: map[string]string{"date": core.ErrInvalidDate.Error()},
		},
		{
			name:    "note not a string",
			body:    `{"amount":"5","category":"Food","note":3,"date":"2024-01-15"}`,
			wantErr: map[string]string{"note": "note must be a string"},
		},
		{
			name:    "overlong category",
			body:    `{"amount":"5","category":"` + strings.Repeat("c", 101) + `","date":"2024-01-15"}`,
			wantErr: map[string]string{"category": core.ErrCategoryTooLong.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(tt.body))
			e, err := ParseExpenseBody(r, today)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if e.Amount.String() != tt.wantAmount {
					t.Errorf("amount = %s, want %s", e.Amount, tt.wantAmount)
				}
				if e.ID != 0 || !e.CreatedAt.IsZero() {
					t.Errorf("server fields leaked from body: %+v", e)
				}
				return
			}
			var verrs core.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			for field, msg := range tt.wantErr {
				if verrs[field] != msg {
					t.Errorf("%s = %q, want %q", field, verrs[field], msg)
				}
			}
		})
	}
}

func TestParseExpenseBodyTooLarge(t *testing.T) {
	body := `{"note":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(body))
	_, err := ParseExpenseBody(r, core.NewDate(2024, 6, 15))
	var verrs core.ValidationErrors
	if !errors.As(err, &verrs) || verrs["body"] == "" {
		t.Fatalf("expected body error, got %v", err)
	}
}
