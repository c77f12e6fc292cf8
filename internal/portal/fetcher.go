// File: internal/portal/fetcher.go
package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// searchResponse mirrors the availability-search endpoint's JSON body. Only
// the fields the watcher consumes are declared; the portal sends many more.
type searchResponse struct {
	Success bool        `json:"success"`
	Data    []courseRow `json:"data"`
}

type courseRow struct {
	CourseReferenceNumber string `json:"courseReferenceNumber"`
	SeatsAvailable        int    `json:"seatsAvailable"`
}

// Fetcher issues availability queries against the portal's search endpoint
// using whatever credential snapshot the caller currently holds.
type Fetcher struct {
	searchURL string
	client    *http.Client
	logger    *zap.Logger
}

// NewFetcher creates a Fetcher bound to the given search endpoint.
func NewFetcher(searchURL string, client *http.Client, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = NewHTTPClient(nil)
	}
	return &Fetcher{
		searchURL: searchURL,
		client:    client,
		logger:    logger.Named("fetch"),
	}
}

// Fetch issues one GET with creds merged into query parameters and headers,
// and returns the matched course sections. With no CourseIDs on the target
// the full result list is returned in response order; otherwise it is
// filtered to sections whose reference number is in the target set. Any
// network failure, non-success response, or unexpected body shape surfaces
// as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, target CourseTarget, creds Credentials) ([]CourseStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.searchURL, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: f.searchURL, Detail: "building request", Err: err}
	}

	q := url.Values{}
	for k, v := range creds.QueryParams {
		q.Set(k, v)
	}
	q.Set("txt_subject", target.SubjectCode)
	q.Set("txt_courseNumber", target.CourseNumber)
	req.URL.RawQuery = q.Encode()

	for k, v := range creds.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: f.searchURL, Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Endpoint: f.searchURL,
			Detail:   fmt.Sprintf("expected status 200, got %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Endpoint: f.searchURL, Detail: "reading body", Err: err}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &FetchError{Endpoint: f.searchURL, Detail: "expected JSON body", Err: err}
	}
	if !parsed.Success {
		return nil, &FetchError{Endpoint: f.searchURL, Detail: "response indicates success=false"}
	}
	if parsed.Data == nil {
		return nil, &FetchError{Endpoint: f.searchURL, Detail: `expected "data" array, found none`}
	}

	results := make([]CourseStatus, 0, len(parsed.Data))
	for _, row := range parsed.Data {
		results = append(results, CourseStatus{
			ReferenceNumber: row.CourseReferenceNumber,
			SeatsAvailable:  row.SeatsAvailable,
		})
	}

	if target.CourseIDs == nil {
		f.logger.Debug("Fetched availability.", zap.Int("sections", len(results)))
		return results, nil
	}

	wanted := make(map[string]struct{}, len(target.CourseIDs))
	for _, id := range target.CourseIDs {
		wanted[id] = struct{}{}
	}
	filtered := results[:0]
	for _, cs := range results {
		if _, ok := wanted[cs.ReferenceNumber]; ok {
			filtered = append(filtered, cs)
		}
	}
	f.logger.Debug("Fetched availability.",
		zap.Int("sections", len(parsed.Data)), zap.Int("matched", len(filtered)))
	return filtered, nil
}
