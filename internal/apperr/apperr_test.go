package apperr

import (
	"errors"
	"testing"
)

func TestErrorMessageIncludesWrappedError(t *testing.T) {
	wrapped := errors.New("connection refused")
	err := Internal("query failed", wrapped)
	want := "query failed: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessageWithoutWrappedError(t *testing.T) {
	err := NotFound("book not found", nil)
	if err.Error() != "book not found" {
		t.Errorf("Error() = %q, want %q", err.Error(), "book not found")
	}
}

func TestUnwrapReturnsWrappedError(t *testing.T) {
	wrapped := errors.New("boom")
	err := External("provider call failed", wrapped)
	if !errors.Is(err, wrapped) {
		t.Error("expected errors.Is to find the wrapped error through Unwrap")
	}
}

func TestKindOfClassifiesConstructors(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{NotFound("x", nil), KindNotFound},
		{Validation("x", nil), KindValidation},
		{External("x", nil), KindExternal},
		{Internal("x", nil), KindInternal},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestKindOfDefaultsToInternalForPlainErrors(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain error) = %v, want KindInternal", got)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindNotFound:   "not_found",
		KindValidation: "validation",
		KindExternal:   "external",
		KindInternal:   "internal",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
