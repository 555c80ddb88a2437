// Package http serves the ledger over a small JSON API.
//
// This file turns query strings and request bodies into ledger queries,
// report requests and new transactions.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/report"
	"ledger/internal/services"
)

// ErrBadRequest marks malformed parameters or bodies.
var ErrBadRequest = errors.New("bad request")

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 16

// parseRange reads the optional start and end query parameters. Either side
// may be omitted to leave it open.
func parseRange(q url.Values) (report.Range, error) {
	var rng report.Range
	for _, p := range []struct {
		name string
		dst  *core.Date
	}{{"start", &rng.Start}, {"end", &rng.End}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return report.Range{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrBadRequest, p.name)
		}
		*p.dst = d
	}
	return rng, nil
}

// parseTypeFilter maps "" and "all" to AnyType.
func parseTypeFilter(v string) (core.TxType, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return core.AnyType, nil
	}
	for _, t := range core.Types() {
		if strings.EqualFold(v, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: type must be Income or Expense", ErrBadRequest)
}

// ParseListQuery reads start, end, type, category, sort and order.
func ParseListQuery(q url.Values) (report.ListQuery, error) {
	rng, err := parseRange(q)
	if err != nil {
		return report.ListQuery{}, err
	}
	typ, err := parseTypeFilter(q.Get("type"))
	if err != nil {
		return report.ListQuery{}, err
	}
	sortBy, err := report.ParseSortField(q.Get("sort"))
	if err != nil {
		return report.ListQuery{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	var desc bool
	switch order := strings.ToLower(strings.TrimSpace(q.Get("order"))); order {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return report.ListQuery{}, fmt.Errorf("%w: order must be asc or desc", ErrBadRequest)
	}

	return report.ListQuery{
		Range:      rng,
		Type:       typ,
		Category:   strings.TrimSpace(sanitizeInput(q.Get("category"))),
		SortBy:     sortBy,
		Descending: desc,
	}, nil
}

// ParseReportRequest builds the request for kind from granularity, type,
// start and end. Kind and granularity errors keep their report sentinel.
func ParseReportRequest(kind string, q url.Values) (report.Request, error) {
	k, err := report.ParseKind(kind)
	if err != nil {
		return report.Request{}, err
	}
	req := report.Request{Kind: k}
	if g := strings.TrimSpace(q.Get("granularity")); g != "" {
		if req.Granularity, err = report.ParseGranularity(g); err != nil {
			return report.Request{}, fmt.Errorf("%w: %q", err, g)
		}
	}
	if req.Range, err = parseRange(q); err != nil {
		return report.Request{}, err
	}
	if req.Type, err = parseTypeFilter(q.Get("type")); err != nil {
		return report.Request{}, err
	}
	return req, nil
}

// RequestBodyParser reads a JSON object or a form-encoded body once.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object, as a form
// otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	switch {
	case body == "":
		p.formData = url.Values{}
	case body[0] == '{':
		dec := json.NewDecoder(strings.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: invalid JSON: %v", ErrBadRequest, err)
		} else if _, err := dec.Token(); err != io.EOF {
			p.err = fmt.Errorf("%w: invalid JSON: trailing data", ErrBadRequest)
		}
	default:
		if p.formData, p.err = url.ParseQuery(body); p.err != nil {
			p.err = fmt.Errorf("%w: invalid form: %v", ErrBadRequest, p.err)
		}
	}
	return p.err
}

// Get returns the trimmed value of key from the parsed body.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseAddRequest reads date, type, category, amount and new_category. A
// missing date means today.
func ParseAddRequest(p *RequestBodyParser) (services.AddRequest, error) {
	if err := p.Parse(); err != nil {
		return services.AddRequest{}, err
	}
	req := services.AddRequest{
		Date:     core.Today(),
		Category: p.Get("category"),
		Amount:   p.Get("amount"),
	}
	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return services.AddRequest{}, err
		}
		req.Date = d
	}
	t, err := core.ParseTxType(p.Get("type"))
	if err != nil {
		return services.AddRequest{}, err
	}
	req.Type = t
	if v := p.Get("new_category"); v != "" {
		if req.NewCategory, err = strconv.ParseBool(v); err != nil {
			return services.AddRequest{}, fmt.Errorf("%w: new_category must be a boolean", ErrBadRequest)
		}
	}
	return req, nil
}

// ParseIdentity reads the delete key from date, category and type query
// parameters.
func ParseIdentity(q url.Values) (core.Identity, error) {
	d, err := core.ParseDate(q.Get("date"))
	if err != nil {
		return core.Identity{}, err
	}
	t, err := core.ParseTxType(q.Get("type"))
	if err != nil {
		return core.Identity{}, err
	}
	return core.Identity{Date: d, Category: strings.TrimSpace(q.Get("category")), Type: t}, nil
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
