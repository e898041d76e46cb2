package state

import "github.com/consensys/gnark-crypto/ecc/bandersnatch"

// ValidateBandersnatchKey reports whether pub decodes to a point on the
// Bandersnatch curve (spec §5 Supplemented Features: an opt-in sanity
// check beyond what the base state codec requires — decoding a
// ValidatorRecord never calls this automatically). Callers that need
// stronger guarantees (subgroup membership, non-identity) should layer
// those checks on top; this only rules out a key that cannot possibly be
// a valid curve point.
func ValidateBandersnatchKey(pub [32]byte) bool {
	var p bandersnatch.PointAffine
	if _, err := p.SetBytes(pub[:]); err != nil {
		return false
	}
	return p.IsOnCurve()
}

// ValidateBandersnatchKey reports whether this record's Bandersnatch
// field is a valid curve point. Decoding a ValidatorRecord never calls
// this; it is an opt-in check a caller runs when it wants stronger
// guarantees than the base state codec provides.
func (v ValidatorRecord) ValidateBandersnatchKey() bool {
	return ValidateBandersnatchKey(v.Bandersnatch)
}
