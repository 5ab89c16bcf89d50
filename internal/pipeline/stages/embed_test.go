package stages

import "testing"

func TestEncodeVectorFormatsPgvectorLiteral(t *testing.T) {
	got := encodeVector([]float32{0.5, -1, 2.25})
	want := "[0.5,-1,2.25]"
	if got != want {
		t.Errorf("encodeVector() = %q, want %q", got, want)
	}
}

func TestEncodeVectorEmpty(t *testing.T) {
	if got := encodeVector(nil); got != "[]" {
		t.Errorf("encodeVector(nil) = %q, want \"[]\"", got)
	}
}

func TestFilenameDefaultTitleNormalizesSeparators(t *testing.T) {
	cases := map[string]string{
		"/books/deep_work-rules.pdf": "deep work rules",
		"/books/atomic-habits.epub":  "atomic habits",
		"/books/Sapiens.pdf":         "Sapiens",
	}
	for path, want := range cases {
		if got := filenameDefaultTitle(path); got != want {
			t.Errorf("filenameDefaultTitle(%q) = %q, want %q", path, got, want)
		}
	}
}
