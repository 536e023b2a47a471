package securitycenter

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/tphakala/go-securitycenter/internal/api"
)

// Analysis defaults, matching what the API itself assumes.
const (
	defaultPageSize   = 1000
	defaultQueryType  = "vuln"
	defaultSourceType = "cumulative"

	// pageAll selects the accumulate-across-all-pages mode.
	pageAll = -1
)

// ResultTransform converts one analysis page into the records to accumulate.
// Returning a nil slice accumulates nothing, for transforms that only want
// the side effect of seeing each page; pagination continues off the page's
// progress fields either way. Auxiliary transform state is captured in the
// closure.
type ResultTransform func(page *AnalysisPage) ([]Record, error)

// defaultTransform returns the page's results array unchanged.
func defaultTransform(page *AnalysisPage) ([]Record, error) {
	return page.Results, nil
}

// AnalysisService provides access to the vuln/event/mobile/log analysis
// endpoint.
type AnalysisService interface {
	// Query runs the query and accumulates records across all pages
	// (or the single page selected with WithPage). The returned slice is
	// never nil; no matches yield an empty slice.
	Query(ctx context.Context, tool string, filters []Filter, opts ...QueryOption) ([]Record, error)

	// Stream returns an iterator over matching records, fetching pages
	// lazily as you iterate.
	Stream(ctx context.Context, tool string, filters []Filter, opts ...QueryOption) iter.Seq2[Record, error]

	// QueryPage fetches a single zero-based page together with its
	// pagination metadata. Use this for manual pagination control.
	QueryPage(ctx context.Context, tool string, filters []Filter, page int, opts ...QueryOption) (*AnalysisPage, error)
}

// QueryOption configures an analysis query.
type QueryOption func(*queryConfig)

type queryConfig struct {
	queryType  string
	sourceType string
	pageSize   int
	page       int
	raw        map[string]any
	transform  ResultTransform
	headers    http.Header
}

func newQueryConfig() *queryConfig {
	return &queryConfig{
		queryType:  defaultQueryType,
		sourceType: defaultSourceType,
		pageSize:   defaultPageSize,
		page:       pageAll,
		transform:  defaultTransform,
		headers:    make(http.Header),
	}
}

func (c *queryConfig) apply(opts ...QueryOption) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithQueryType sets the data type queried against (default "vuln"). Event
// data from the LCE or mobile data from an MDM repository use other types.
func WithQueryType(t string) QueryOption {
	return func(c *queryConfig) {
		c.queryType = t
	}
}

// WithSourceType sets the data store queried (default "cumulative").
func WithSourceType(t string) QueryOption {
	return func(c *queryConfig) {
		c.sourceType = t
	}
}

// WithPageSize sets the number of records requested per page (default 1000).
func WithPageSize(n int) QueryOption {
	return func(c *queryConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPage restricts the query to a single zero-based page instead of
// accumulating across all pages.
func WithPage(n int) QueryOption {
	return func(c *queryConfig) {
		if n >= 0 {
			c.page = n
		}
	}
}

// WithRawQuery replaces the generated query object entirely. Filters and the
// tool argument are ignored; offsets inside the map are still advanced by the
// pagination loop.
func WithRawQuery(query map[string]any) QueryOption {
	return func(c *queryConfig) {
		c.raw = query
	}
}

// WithTransform replaces the default results extraction.
func WithTransform(fn ResultTransform) QueryOption {
	return func(c *queryConfig) {
		if fn != nil {
			c.transform = fn
		}
	}
}

// WithQueryHeader adds a custom header to every request of this query.
func WithQueryHeader(key, value string) QueryOption {
	return func(c *queryConfig) {
		c.headers.Set(key, value)
	}
}

// pager owns the request body across pagination iterations and advances its
// offsets in place.
type pager struct {
	request *analysisRequest
	typed   *analysisQuery
	raw     map[string]any
}

// buildPager assembles the analysis request body from the query config. With
// a raw query the caller's map is used as-is, initial offsets included.
func (c *queryConfig) buildPager(tool string, filters []Filter) (*pager, error) {
	if c.raw != nil {
		return &pager{
			request: &analysisRequest{Type: c.queryType, SourceType: c.sourceType, Query: c.raw},
			raw:     c.raw,
		}, nil
	}

	if tool == "" {
		return nil, ErrNoTool
	}

	qf := make([]queryFilter, 0, len(filters))
	for _, f := range filters {
		qf = append(qf, queryFilter{
			FilterName: f.Field,
			Operator:   f.Operator,
			Value:      f.Value,
			Type:       c.queryType,
		})
	}

	q := &analysisQuery{
		Tool:    tool,
		Type:    c.queryType,
		Filters: qf,
	}
	if c.page == pageAll {
		q.StartOffset = 0
		q.EndOffset = c.pageSize
	} else {
		q.StartOffset = c.page * c.pageSize
		q.EndOffset = (c.page + 1) * c.pageSize
	}

	return &pager{
		request: &analysisRequest{Type: c.queryType, SourceType: c.sourceType, Query: q},
		typed:   q,
	}, nil
}

func (p *pager) setOffsets(start, end int) {
	if p.raw != nil {
		p.raw["startOffset"] = start
		p.raw["endOffset"] = end
		return
	}
	p.typed.StartOffset = start
	p.typed.EndOffset = end
}

// analysisService implements AnalysisService.
type analysisService struct {
	transport *api.Transport
}

func newAnalysisService(transport *api.Transport) *analysisService {
	return &analysisService{transport: transport}
}

// Query accumulates records across pages.
//
// Termination relies entirely on the server's totalRecords and endOffset
// fields; a server whose progress fields never converge keeps the loop
// running. There is no independent iteration cap.
func (s *analysisService) Query(ctx context.Context, tool string, filters []Filter, opts ...QueryOption) ([]Record, error) {
	cfg := newQueryConfig()
	cfg.apply(opts...)

	p, err := cfg.buildPager(tool, filters)
	if err != nil {
		return nil, err
	}

	output := make([]Record, 0)
	count := 0
	total := cfg.pageSize
	for total > count {
		page, err := s.postQuery(ctx, p, cfg.headers)
		if err != nil {
			return nil, err
		}

		records, err := cfg.transform(page)
		if err != nil {
			return nil, fmt.Errorf("transforming analysis results: %w", err)
		}
		output = append(output, records...)

		total = page.TotalRecords.Int()
		if cfg.page == pageAll {
			count = page.EndOffset.Int()
			p.setOffsets(count, count+cfg.pageSize)
		} else {
			// Single-page mode terminates after one iteration.
			count = total
		}
	}

	return output, nil
}

// Stream returns an iterator over matching records, fetching pages lazily.
// The same unbounded-pagination caveat as Query applies.
func (s *analysisService) Stream(ctx context.Context, tool string, filters []Filter, opts ...QueryOption) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		cfg := newQueryConfig()
		cfg.apply(opts...)

		p, err := cfg.buildPager(tool, filters)
		if err != nil {
			yield(nil, err)
			return
		}

		count := 0
		total := cfg.pageSize
		for total > count {
			page, err := s.postQuery(ctx, p, cfg.headers)
			if err != nil {
				yield(nil, err)
				return
			}

			records, err := cfg.transform(page)
			if err != nil {
				yield(nil, fmt.Errorf("transforming analysis results: %w", err))
				return
			}

			if !yieldRecords(ctx, records, yield) {
				return
			}

			total = page.TotalRecords.Int()
			if cfg.page == pageAll {
				count = page.EndOffset.Int()
				p.setOffsets(count, count+cfg.pageSize)
			} else {
				count = total
			}
		}
	}
}

// yieldRecords yields each record from a page to the iterator. Returns false
// if iteration should stop (context cancelled or yield returned false).
func yieldRecords(ctx context.Context, records []Record, yield func(Record, error) bool) bool {
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return false
		}
		if !yield(r, nil) {
			return false
		}
	}
	return true
}

// QueryPage fetches a single page with full pagination metadata.
func (s *analysisService) QueryPage(ctx context.Context, tool string, filters []Filter, page int, opts ...QueryOption) (*AnalysisPage, error) {
	cfg := newQueryConfig()
	cfg.apply(opts...)
	if page >= 0 {
		cfg.page = page
	}

	p, err := cfg.buildPager(tool, filters)
	if err != nil {
		return nil, err
	}

	return s.postQuery(ctx, p, cfg.headers)
}

// postQuery sends the current query body and decodes the page envelope.
func (s *analysisService) postQuery(ctx context.Context, p *pager, headers http.Header) (*AnalysisPage, error) {
	var env envelope[AnalysisPage]
	if _, err := s.transport.DoJSON(ctx, &api.Request{
		Method:  http.MethodPost,
		Path:    "analysis",
		Body:    p.request,
		Headers: headers,
	}, &env); err != nil {
		return nil, err
	}
	return &env.Response, nil
}
