// Package http provides HTTP server and handler implementations.
//
// This file implements the builder for JSON responses and the wire shapes
// of transactions and reports.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/report"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	data       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.data = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.data == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	body, err := json.Marshal(b.data)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse creates a response carrying message under "error".
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Data(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

// ErrorFor maps a service error onto a response. Unknown errors become a
// generic 500 so internals are not leaked.
func ErrorFor(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, report.ErrUnknownKind),
		errors.Is(err, report.ErrUnknownGranularity),
		errors.Is(err, report.ErrTypeRequired):
		return BadRequestError(err.Error())
	case errors.Is(err, ledger.ErrIdentityNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyCategory):
		return UnprocessableEntityError(firstLine(err))
	default:
		return InternalServerError("internal error")
	}
}

// firstLine keeps the sentinel text of joined errors.
func firstLine(err error) string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		if errs := joined.Unwrap(); len(errs) > 0 {
			return errs[0].Error()
		}
	}
	return err.Error()
}

type transactionJSON struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		Date:     tx.Date.String(),
		Type:     tx.Type.String(),
		Category: tx.Category,
		Amount:   core.FormatAmount(tx.Amount),
	}
}

type totalsJSON struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

func toTotalsJSON(t report.Totals) totalsJSON {
	return totalsJSON{
		Income:  core.FormatAmount(t.Income),
		Expense: core.FormatAmount(t.Expense),
		Net:     core.FormatAmount(t.Net()),
	}
}

type listJSON struct {
	Transactions []transactionJSON `json:"transactions"`
	Totals       totalsJSON        `json:"totals"`
	Unparseable  int               `json:"unparseable"`
}

func toListJSON(res report.ListResult) listJSON {
	out := listJSON{
		Transactions: make([]transactionJSON, 0, len(res.Transactions)),
		Totals:       toTotalsJSON(res.Totals),
		Unparseable:  res.Diagnostics.Unparseable,
	}
	for _, tx := range res.Transactions {
		out.Transactions = append(out.Transactions, toTransactionJSON(tx))
	}
	return out
}

type rowJSON struct {
	Period  string `json:"period"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
	Delta   string `json:"delta"`
}

type pointJSON struct {
	Period string `json:"period"`
	Amount string `json:"amount"`
}

type categoryJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type stackJSON struct {
	Category string      `json:"category"`
	Points   []pointJSON `json:"points"`
}

type reportJSON struct {
	Kind        string         `json:"kind"`
	Granularity string         `json:"granularity"`
	Type        string         `json:"type,omitempty"`
	Start       string         `json:"start,omitempty"`
	End         string         `json:"end,omitempty"`
	Rows        []rowJSON      `json:"rows,omitempty"`
	Categories  []categoryJSON `json:"categories,omitempty"`
	Stacks      []stackJSON    `json:"stacks,omitempty"`
	Totals      totalsJSON     `json:"totals"`
	Unparseable int            `json:"unparseable"`
	Warnings    []string       `json:"warnings"`
}

func toReportJSON(rep report.Report) reportJSON {
	out := reportJSON{
		Kind:        rep.Kind.String(),
		Granularity: rep.Granularity.String(),
		Type:        rep.Type.String(),
		Start:       rep.Range.Start.String(),
		End:         rep.Range.End.String(),
		Totals:      toTotalsJSON(rep.Totals),
		Unparseable: rep.Diagnostics.Unparseable,
		Warnings:    make([]string, 0, len(rep.Warnings)),
	}
	for _, w := range rep.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	for _, r := range rep.Rows {
		out.Rows = append(out.Rows, rowJSON{
			Period:  r.Period.String(),
			Income:  core.FormatAmount(r.Income),
			Expense: core.FormatAmount(r.Expense),
			Net:     core.FormatAmount(r.Net),
			Delta:   core.FormatAmount(r.Delta),
		})
	}
	for _, c := range rep.Categories {
		out.Categories = append(out.Categories, categoryJSON{Category: c.Category, Amount: core.FormatAmount(c.Amount)})
	}
	for _, s := range rep.Stacks {
		st := stackJSON{Category: s.Category, Points: make([]pointJSON, 0, len(s.Points))}
		for _, p := range s.Points {
			st.Points = append(st.Points, pointJSON{Period: p.Period.String(), Amount: core.FormatAmount(p.Amount)})
		}
		out.Stacks = append(out.Stacks, st)
	}
	return out
}
