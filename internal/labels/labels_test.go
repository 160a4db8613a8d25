package labels

import (
	"strings"
	"testing"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

func TestManifest(t *testing.T) {
	t.Parallel()
	units := []model.Unit{
		{ID: "UNIT-AAAA-AAAA-AAAA-AAAA"},
		{ID: "UNIT-BBBB-BBBB-BBBB-BBBB"},
	}
	m := Manifest("BATCH-0042", "CTN-XXXX-XXXX-XXXX-XXXX", "Amoxicillin 500mg", units)

	for _, want := range []string{
		"Batch ID: BATCH-0042",
		"Master Carton: CTN-XXXX-XXXX-XXXX-XXXX",
		"Product: Amoxicillin 500mg",
		"Units: 2",
		"UNIT-AAAA-AAAA-AAAA-AAAA",
	} {
		if !strings.Contains(m, want) {
			t.Fatalf("manifest missing %q:\n%s", want, m)
		}
	}
}
