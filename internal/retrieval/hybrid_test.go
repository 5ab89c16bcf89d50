package retrieval

import (
	"testing"

	"github.com/google/uuid"
)

func TestFuseCombinesRanksAcrossBothLists(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	c := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	// a is rank 0 on both sides: its fused score must exceed b (rank 0
	// on one side only) and c (rank 1 on one side only).
	fts := []uuid.UUID{a, c}
	vector := []uuid.UUID{a, b}

	fused := fuse(fts, vector)
	if len(fused) != 3 {
		t.Fatalf("len(fused) = %d, want 3", len(fused))
	}
	if fused[0].chunkID != a {
		t.Errorf("top result = %s, want %s (present in both lists)", fused[0].chunkID, a)
	}

	wantA := 1.0/61.0 + 1.0/61.0
	if fused[0].score != wantA {
		t.Errorf("score(a) = %v, want %v", fused[0].score, wantA)
	}
}

func TestFuseTieBreaksByChunkIDLexicographically(t *testing.T) {
	// Two chunk IDs that appear at the same rank in disjoint lists get
	// identical RRF scores; the tie must break by UUID string order so
	// the result is deterministic across runs.
	lo := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	hi := uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

	fused := fuse([]uuid.UUID{hi}, []uuid.UUID{lo})
	if len(fused) != 2 {
		t.Fatalf("len(fused) = %d, want 2", len(fused))
	}
	if fused[0].score != fused[1].score {
		t.Fatalf("expected a tie, got scores %v and %v", fused[0].score, fused[1].score)
	}
	if fused[0].chunkID != lo {
		t.Errorf("tie-break winner = %s, want %s (lexicographically smaller)", fused[0].chunkID, lo)
	}
}

func TestFuseEmptyInputsProduceNoResults(t *testing.T) {
	if fused := fuse(nil, nil); len(fused) != 0 {
		t.Errorf("len(fused) = %d, want 0", len(fused))
	}
}

func TestFuseOneSidedListStillRanks(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	// b ranks ahead of a within the sole contributing list.
	fused := fuse(nil, []uuid.UUID{b, a})
	if len(fused) != 2 || fused[0].chunkID != b {
		t.Errorf("expected b ranked first when it has the better rank in the only list, got %+v", fused)
	}
}

func TestEncodeVectorFormatsPgvectorLiteral(t *testing.T) {
	got := encodeVector([]float32{1, 0.5, -2})
	want := "[1,0.5,-2]"
	if got != want {
		t.Errorf("encodeVector() = %q, want %q", got, want)
	}
}

func TestEncodeVectorEmpty(t *testing.T) {
	if got := encodeVector(nil); got != "[]" {
		t.Errorf("encodeVector(nil) = %q, want []", got)
	}
}

func TestAppendBookFilterNoFilter(t *testing.T) {
	sql, args := appendBookFilter("SELECT 1", []any{"x"}, nil)
	if sql != "SELECT 1" {
		t.Errorf("sql changed with empty filter: %q", sql)
	}
	if len(args) != 1 {
		t.Errorf("args changed with empty filter: %v", args)
	}
}

func TestAppendBookFilterAddsClause(t *testing.T) {
	id := uuid.New()
	sql, args := appendBookFilter("SELECT 1 WHERE true", []any{"q"}, []uuid.UUID{id})
	if len(args) != 2 {
		t.Fatalf("len(args) = %d, want 2", len(args))
	}
	want := "SELECT 1 WHERE true AND book_id = ANY($2)"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}
