package types

import "encoding/hex"

// DatasetID uniquely identifies an indexed dataset. The naming layer maps
// human-readable names onto these identifiers; the ledger treats them as
// opaque 32-byte values.
type DatasetID [32]byte

// AllocationID identifies a single stake allocation. Identifiers are supplied
// by the provider when opening an allocation and are never reused once the
// allocation closes.
type AllocationID [20]byte

// String renders the dataset identifier as lowercase hex.
func (d DatasetID) String() string { return hex.EncodeToString(d[:]) }

// String renders the allocation identifier as lowercase hex.
func (a AllocationID) String() string { return hex.EncodeToString(a[:]) }

// IsZero reports whether the identifier is the all-zero value, which the
// ledger rejects wherever an identifier is required.
func (d DatasetID) IsZero() bool { return d == DatasetID{} }

// IsZero reports whether the allocation identifier is unset.
func (a AllocationID) IsZero() bool { return a == AllocationID{} }
