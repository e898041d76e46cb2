package state

import blst "github.com/supranational/blst/bindings/go"

// blsPubkeySize is the length of a compressed BLS12-381 G1 point — the
// MinPk public-key encoding blst (and the wider BLS12-381 ecosystem) uses.
// ValidatorRecord.Bls is 144 bytes, wider than this to leave room for a
// future encoding; only the leading blsPubkeySize bytes are interpreted as
// the curve point, mirroring the 48-byte compressed keys the teacher's own
// blst adapter validates.
const blsPubkeySize = 48

// ValidateBLSKey reports whether the leading blsPubkeySize bytes of pub
// decode to a valid BLS12-381 G1 public key: a point on the curve, in the
// correct subgroup, and not the identity. Like ValidateBandersnatchKey,
// decoding a ValidatorRecord never calls this — it is an opt-in check a
// caller runs when it wants stronger guarantees than the base state codec
// provides (spec §5 Supplemented Features).
func ValidateBLSKey(pub [144]byte) bool {
	p := new(blst.P1Affine).Uncompress(pub[:blsPubkeySize])
	if p == nil {
		return false
	}
	return p.KeyValidate()
}

// ValidateBLSKey reports whether this record's Bls field is a valid
// BLS12-381 public key.
func (v ValidatorRecord) ValidateBLSKey() bool {
	return ValidateBLSKey(v.Bls)
}
