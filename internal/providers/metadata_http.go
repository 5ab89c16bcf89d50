package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// externalLookupTimeout bounds every outbound metadata/cover call so a slow
// or hung upstream never stalls a pipeline stage indefinitely.
const externalLookupTimeout = 15 * time.Second

// OpenLibraryConfig configures a MetadataClient backed by the Open Library
// search and covers APIs (no API key required).
type OpenLibraryConfig struct {
	BaseURL string // default https://openlibrary.org
	Client  *http.Client
}

// OpenLibraryClient implements MetadataClient against openlibrary.org.
type OpenLibraryClient struct {
	baseURL string
	http    *http.Client
}

// NewOpenLibraryClient builds an OpenLibraryClient with sensible defaults.
func NewOpenLibraryClient(cfg OpenLibraryConfig) *OpenLibraryClient {
	base := cfg.BaseURL
	if base == "" {
		base = "https://openlibrary.org"
	}
	cl := cfg.Client
	if cl == nil {
		cl = &http.Client{Timeout: externalLookupTimeout}
	}
	return &OpenLibraryClient{baseURL: strings.TrimSuffix(base, "/"), http: cl}
}

func (c *OpenLibraryClient) Name() string { return "openlibrary" }

type olSearchResponse struct {
	Docs []struct {
		Title               string   `json:"title"`
		AuthorName          []string `json:"author_name"`
		FirstPublish        int      `json:"first_publish_year"`
		ISBN                []string `json:"isbn"`
		Publisher           []string `json:"publisher"`
		NumberOfPagesMedian int      `json:"number_of_pages_median"`
		RatingsAverage      float64  `json:"ratings_average"`
		CoverEditionID      int      `json:"cover_edition_key,omitempty"`
		CoverI              int      `json:"cover_i"`
		Subject             []string `json:"subject"`
	} `json:"docs"`
}

// Lookup queries Open Library's search endpoint for the best metadata match.
// Best-effort: a miss or any failure, including transport failure after
// retries, returns (nil, nil); it never returns a non-nil error.
func (c *OpenLibraryClient) Lookup(ctx context.Context, req MetadataLookup) (*MetadataResult, error) {
	q := url.Values{}
	switch {
	case req.ISBN != "":
		q.Set("isbn", req.ISBN)
	case req.Title != "" && req.Author != "":
		q.Set("title", req.Title)
		q.Set("author", req.Author)
	case req.Title != "":
		q.Set("q", req.Title)
	default:
		return nil, nil
	}
	q.Set("limit", "1")
	reqURL := c.baseURL + "/search.json?" + q.Encode()

	var result olSearchResponse
	err := retry.Do(
		func() error {
			return c.getJSON(ctx, reqURL, &result)
		},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return nil, nil // best-effort: external metadata is never fatal
	}
	if len(result.Docs) == 0 {
		return nil, nil
	}
	doc := result.Docs[0]
	out := &MetadataResult{
		Title: doc.Title,
		Tags:  doc.Subject,
	}
	if len(doc.AuthorName) > 0 {
		out.Author = doc.AuthorName[0]
	}
	if len(doc.ISBN) > 0 {
		out.ISBN = doc.ISBN[0]
	}
	if len(doc.Publisher) > 0 {
		out.Publisher = doc.Publisher[0]
	}
	if doc.FirstPublish > 0 {
		out.PublishedAt = fmt.Sprintf("%d", doc.FirstPublish)
	}
	if doc.NumberOfPagesMedian > 0 {
		out.PageCount = doc.NumberOfPagesMedian
	}
	if doc.RatingsAverage > 0 {
		out.Rating = doc.RatingsAverage
	}
	if doc.CoverI > 0 {
		out.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI)
	}
	return out, nil
}

// FetchCover downloads cover bytes from a URL, retrying transient failures.
func (c *OpenLibraryClient) FetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(ctx, externalLookupTimeout)
			defer cancel()
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.http.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("cover fetch: status %d", resp.StatusCode)
			}
			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch cover: %w", err)
	}
	return body, nil
}

func (c *OpenLibraryClient) getJSON(ctx context.Context, reqURL string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, externalLookupTimeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metadata lookup: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
