// Package labels renders production manifests and defines the surfaces a
// label printing pipeline plugs into.
package labels

import (
	"fmt"
	"strings"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

// Encoder renders one identifier into a printable code image.
type Encoder interface {
	Encode(id string) ([]byte, error)
}

// Packager bundles a batch's rendered labels into a deliverable artifact
// (zip, PDF, print spool).
type Packager interface {
	Package(batchID string, labels map[string][]byte) ([]byte, error)
}

// Manifest is the human-readable sheet accompanying a production run.
func Manifest(batchID, cartonID, productName string, units []model.Unit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch ID: %s\n", batchID)
	fmt.Fprintf(&b, "Master Carton: %s\n", cartonID)
	fmt.Fprintf(&b, "Product: %s\n", productName)
	fmt.Fprintf(&b, "Units: %d\n", len(units))
	for _, u := range units {
		fmt.Fprintf(&b, "  %s\n", u.ID)
	}
	return b.String()
}
