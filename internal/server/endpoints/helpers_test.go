package endpoints

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/alexmercer/bookbrain/internal/apperr"
)

func TestAppErrStatusMapsEachKind(t *testing.T) {
	cases := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindValidation, http.StatusUnprocessableEntity},
		{apperr.KindExternal, http.StatusBadGateway},
		{apperr.KindInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := appErrStatus(c.kind); got != c.want {
			t.Errorf("appErrStatus(%v) = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestWriteAppErrUsesKindStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeAppErr(rec, apperr.NotFound("book not found", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := rec.Body.String(); got != `{"error":"book not found"}`+"\n" {
		t.Errorf("body = %q", got)
	}
}

func TestWriteAppErrTreatsPlainErrorAsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeAppErr(rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestPathUUIDParsesValidID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/books/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	rec := httptest.NewRecorder()

	got, ok := pathUUID(rec, req, "id")
	if !ok || got != id {
		t.Errorf("pathUUID() = (%v, %v), want (%v, true)", got, ok, id)
	}
}

func TestPathUUIDRejectsInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/books/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()

	_, ok := pathUUID(rec, req, "id")
	if ok {
		t.Error("pathUUID() = true, want false for invalid UUID")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestQueryIntUsesDefaultWhenMissingOrInvalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/books?limit=not-a-number", nil)
	if got := queryInt(req, "limit", 20); got != 20 {
		t.Errorf("queryInt() = %d, want default 20", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/books", nil)
	if got := queryInt(req, "limit", 20); got != 20 {
		t.Errorf("queryInt() with missing param = %d, want default 20", got)
	}
}

func TestQueryIntParsesValidValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/books?limit=5", nil)
	if got := queryInt(req, "limit", 20); got != 5 {
		t.Errorf("queryInt() = %d, want 5", got)
	}
}

func TestQueryUUIDsParsesCommaSeparatedListAndSkipsInvalid(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/search?book_ids="+a.String()+", "+b.String()+",not-a-uuid", nil)

	got := queryUUIDs(req, "book_ids")
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("queryUUIDs() = %v, want [%v %v]", got, a, b)
	}
}

func TestQueryUUIDsEmptyWhenParamMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	if got := queryUUIDs(req, "book_ids"); got != nil {
		t.Errorf("queryUUIDs() = %v, want nil", got)
	}
}
