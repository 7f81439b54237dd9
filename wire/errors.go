package wire

import "github.com/veloce-go/geonet/coreerr"

// NewMalformed builds a wire-parsing error at the given byte offset.
// Aliased locally so every parse function in this package can call it
// without qualifying the import.
func NewMalformed(reason string, offset int) error {
	return coreerr.NewMalformed(reason, offset)
}
