package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenLibraryClient_LookupFillsAllMetadataFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		resp := map[string]any{
			"docs": []map[string]any{
				{
					"title":                  "Deep Work",
					"author_name":            []string{"Cal Newport"},
					"first_publish_year":     2016,
					"isbn":                   []string{"9781455586691"},
					"publisher":              []string{"Grand Central Publishing"},
					"number_of_pages_median": 304,
					"ratings_average":        4.2,
					"cover_i":                12345,
					"subject":                []string{"Productivity"},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewOpenLibraryClient(OpenLibraryConfig{BaseURL: server.URL})
	result, err := client.Lookup(context.Background(), MetadataLookup{Title: "Deep Work", Author: "Cal Newport"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if result == nil {
		t.Fatal("Lookup() returned nil result")
	}

	if result.Publisher != "Grand Central Publishing" {
		t.Errorf("Publisher = %q, want %q", result.Publisher, "Grand Central Publishing")
	}
	if result.PageCount != 304 {
		t.Errorf("PageCount = %d, want 304", result.PageCount)
	}
	if result.Rating != 4.2 {
		t.Errorf("Rating = %v, want 4.2", result.Rating)
	}
	if result.ISBN != "9781455586691" {
		t.Errorf("ISBN = %q, want %q", result.ISBN, "9781455586691")
	}
	if result.PublishedAt != "2016" {
		t.Errorf("PublishedAt = %q, want %q", result.PublishedAt, "2016")
	}
	if result.CoverURL == "" {
		t.Error("CoverURL not set")
	}
}

func TestOpenLibraryClient_LookupLeavesZeroValuesWhenFieldsAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"docs": []map[string]any{
				{"title": "Untitled Work"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewOpenLibraryClient(OpenLibraryConfig{BaseURL: server.URL})
	result, err := client.Lookup(context.Background(), MetadataLookup{Title: "Untitled Work"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if result == nil {
		t.Fatal("Lookup() returned nil result")
	}
	if result.Publisher != "" || result.PageCount != 0 || result.Rating != 0 {
		t.Errorf("expected zero-value fields when absent from response, got %+v", result)
	}
}

func TestOpenLibraryClient_LookupNoQueryReturnsNil(t *testing.T) {
	client := NewOpenLibraryClient(OpenLibraryConfig{BaseURL: "http://unused.invalid"})
	result, err := client.Lookup(context.Background(), MetadataLookup{})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if result != nil {
		t.Errorf("Lookup() with no identifying info = %+v, want nil", result)
	}
}
