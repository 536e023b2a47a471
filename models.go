package securitycenter

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
)

// SystemInfo is the server identity reported by GET /rest/system. All four
// fields must be present for the client to accept the server.
type SystemInfo struct {
	Version       string `json:"version"`
	BuildID       string `json:"buildID"`
	LicenseStatus string `json:"licenseStatus"`
	UUID          string `json:"uuid"`
}

// Filter is one analysis filter tuple. Filters are sent in the order given.
type Filter struct {
	Field    string
	Operator string
	Value    string
}

// F is shorthand for building a Filter.
//
//	sc.Analysis.Query(ctx, "sumip", []securitycenter.Filter{
//	    securitycenter.F("ip", "=", "10.10.0.0/16"),
//	})
func F(field, operator, value string) Filter {
	return Filter{Field: field, Operator: operator, Value: value}
}

// Record is a single analysis result row. The analysis endpoint returns
// tool-dependent column sets, so rows stay schemaless.
type Record map[string]any

// FlexInt is an int that unmarshals from either a JSON number or a quoted
// number. SecurityCenter reports counters like totalRecords as strings.
type FlexInt int

// Int returns the value as a plain int.
func (n FlexInt) Int() int {
	return int(n)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parsing %q as integer: %w", s, err)
	}
	*n = FlexInt(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n FlexInt) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(n))), nil
}

// AnalysisPage is one page of analysis results plus the progress fields the
// pagination loop reads.
type AnalysisPage struct {
	TotalRecords    FlexInt  `json:"totalRecords"`
	ReturnedRecords FlexInt  `json:"returnedRecords"`
	StartOffset     FlexInt  `json:"startOffset"`
	EndOffset       FlexInt  `json:"endOffset"`
	Results         []Record `json:"results"`
}

// Response is a raw API response, returned where the payload is
// caller-specific (file uploads, downloads).
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// queryFilter is the wire form of a Filter inside an analysis query.
type queryFilter struct {
	FilterName string `json:"filterName"`
	Operator   string `json:"operator"`
	Value      string `json:"value"`
	Type       string `json:"type"`
}

// analysisQuery is the query object built from tool, type and filters.
// Offsets are advanced in place across pagination iterations.
type analysisQuery struct {
	Tool        string        `json:"tool,omitempty"`
	Type        string        `json:"type"`
	Filters     []queryFilter `json:"filters"`
	StartOffset int           `json:"startOffset"`
	EndOffset   int           `json:"endOffset"`
}

// analysisRequest is the POST /rest/analysis body. Query is either an
// *analysisQuery or a caller-supplied raw map.
type analysisRequest struct {
	Type       string `json:"type"`
	SourceType string `json:"sourceType"`
	Query      any    `json:"query"`
}

// envelope is the standard success wrapper on SecurityCenter responses.
type envelope[T any] struct {
	Response T `json:"response"`
}
