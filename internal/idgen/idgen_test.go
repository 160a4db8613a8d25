package idgen

import (
	"strings"
	"testing"
)

func TestNew_Shape(t *testing.T) {
	t.Parallel()
	id := New("MED")
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		t.Fatalf("want 5 groups, got %q", id)
	}
	if parts[0] != "MED" {
		t.Fatalf("want MED prefix, got %q", parts[0])
	}
	for _, p := range parts[1:] {
		if len(p) != 4 {
			t.Fatalf("group %q not 4 chars in %q", p, id)
		}
		for i := 0; i < len(p); i++ {
			if !strings.ContainsRune(idAlphabet, rune(p[i])) {
				t.Fatalf("char %q outside alphabet in %q", p[i], id)
			}
		}
	}
}

func TestNew_NoAmbiguousChars(t *testing.T) {
	t.Parallel()
	for i := 0; i < 200; i++ {
		id := New("CTN")
		if strings.ContainsAny(id, "01OI") {
			t.Fatalf("ambiguous character in %q", id)
		}
	}
}

func TestSecret_AlphabetAndLength(t *testing.T) {
	t.Parallel()
	s := Secret(8)
	if len(s) != 8 {
		t.Fatalf("want length 8, got %q", s)
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(secretAlphabet, rune(s[i])) {
			t.Fatalf("char %q outside secret alphabet in %q", s[i], s)
		}
	}
}

func TestLoginID_Shape(t *testing.T) {
	t.Parallel()
	id := LoginID("LIC", 6)
	if !strings.HasPrefix(id, "LIC-") {
		t.Fatalf("want LIC- prefix, got %q", id)
	}
	if len(id) != len("LIC-")+6 {
		t.Fatalf("want 6-char body, got %q", id)
	}
	if id != strings.ToUpper(id) {
		t.Fatalf("login id must be uppercase, got %q", id)
	}
}

func TestBatchID_Shape(t *testing.T) {
	t.Parallel()
	if !strings.HasPrefix(BatchID(), "BATCH-") {
		t.Fatalf("want BATCH- prefix, got %q", BatchID())
	}
}
