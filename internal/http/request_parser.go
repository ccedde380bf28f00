// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data:
// path parameters, query parameters and the expense JSON body. Every parser
// reports failures as core.ValidationErrors so handlers answer 400 uniformly.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"finmate/internal/core"
)

const maxBodyBytes = 1 << 20

const (
	minYear = 1
	maxYear = 9999
)

var (
	errMalformedBody = errors.New("request body must be a JSON object")
	errNotString     = errors.New("must be a string")
	errNotInteger    = errors.New("must be an integer")
	errYearRange     = errors.New("year must be between 1 and 9999")
)

// ParseID reads the {id} path segment.
func ParseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil {
		return 0, core.ValidationErrors{"id": "id " + errNotInteger.Error()}
	}
	return id, nil
}

// ParseYearMonth reads the {year} and {month} path segments. Both failures are reported together.
func ParseYearMonth(r *http.Request) (year, month int, err error) {
	errs := core.ValidationErrors{}

	year, convErr := strconv.Atoi(strings.TrimSpace(r.PathValue("year")))
	switch {
	case convErr != nil:
		errs["year"] = "year " + errNotInteger.Error()
	case year < minYear || year > maxYear:
		errs.Add("year", errYearRange)
	}

	month, convErr = strconv.Atoi(strings.TrimSpace(r.PathValue("month")))
	switch {
	case convErr != nil:
		errs["month"] = "month " + errNotInteger.Error()
	case month < 1 || month > 12:
		errs.Add("month", core.ErrInvalidMonth)
	}

	return year, month, errs.Err()
}

// ParseDateRange reads the startDate and endDate query parameters.
func ParseDateRange(r *http.Request) (start, end core.Date, err error) {
	errs := core.ValidationErrors{}
	q := r.URL.Query()

	parse := func(field string) core.Date {
		v := q.Get(field)
		if strings.TrimSpace(v) == "" {
			errs.Add(field, core.ErrRequired)
			return core.Date{}
		}
		d, err := core.ParseDate(v)
		errs.Add(field, err)
		return d
	}
	start = parse("startDate")
	end = parse("endDate")

	return start, end, errs.Err()
}

// ParseExpenseBody decodes and validates an expense payload against today.
// Any id or createdAt in the body is ignored.
func ParseExpenseBody(r *http.Request, today core.Date) (core.Expense, error) {
	raw, err := readJSONObject(r)
	if err != nil {
		return core.Expense{}, core.ValidationErrors{"body": err.Error()}
	}

	var (
		e    core.Expense
		errs = core.ValidationErrors{}
	)

	if v, ok := present(raw, "amount"); !ok {
		errs.Add("amount", core.ErrRequired)
	} else if err := e.Amount.UnmarshalJSON(v); err != nil {
		errs.Add("amount", err)
	}

	if v, ok := present(raw, "category"); !ok {
		errs.Add("category", core.ErrRequired)
	} else if s, err := jsonString(v); err != nil {
		errs.Add("category", prefixed("category", err))
	} else {
		e.Category = s
	}

	if v, ok := present(raw, "note"); ok {
		if s, err := jsonString(v); err != nil {
			errs.Add("note", prefixed("note", err))
		} else {
			e.Note = s
		}
	}

	if v, ok := present(raw, "date"); !ok {
		errs.Add("date", core.ErrRequired)
	} else if s, err := jsonString(v); err != nil {
		errs.Add("date", core.ErrInvalidDate)
	} else if d, err := core.ParseDate(s); err != nil {
		errs.Add("date", err)
	} else {
		e.Date = d
	}

	// Type errors above win over the constraint messages.
	if verr := e.Validate(today); verr != nil {
		var fieldErrs core.ValidationErrors
		if errors.As(verr, &fieldErrs) {
			for field, msg := range fieldErrs {
				if _, seen := errs[field]; !seen {
					errs[field] = msg
				}
			}
		}
	}

	return e, errs.Err()
}

func readJSONObject(r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errMalformedBody
	}
	if len(body) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, errMalformedBody
	}
	if dec.More() {
		return nil, errMalformedBody
	}
	return raw, nil
}

// present reports whether key exists with a non-null value.
func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func jsonString(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", errNotString
	}
	return s, nil
}

func prefixed(field string, err error) error {
	return errors.New(field + " " + err.Error())
}
