package state

import "golang.org/x/crypto/blake2b"

// AppendToBelt folds leaf into belt, the Merkle Mountain Range peak
// accumulator backing Beta's "beefy root + belt" canonical wire form
// (spec §9 Design Notes, resolved Open Question). Each rank i holds
// either nil (no peak yet at that height) or a single combined hash;
// appending a leaf carries upward through occupied ranks exactly like a
// binary counter increment, combining pairs with CombineHashes until it
// lands on an empty rank.
func AppendToBelt(belt []*Hash, leaf Hash) []*Hash {
	out := make([]*Hash, len(belt))
	copy(out, belt)

	carry := leaf
	i := 0
	for i < len(out) {
		if out[i] == nil {
			break
		}
		carry = CombineHashes(*out[i], carry)
		out[i] = nil
		i++
	}
	if i == len(out) {
		out = append(out, nil)
	}
	h := carry
	out[i] = &h
	return out
}

// CombineHashes folds two child hashes into their parent using blake2b-256
// (spec domain-stack wiring: golang.org/x/crypto/blake2b backs the belt's
// hash combiner).
func CombineHashes(left, right Hash) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// New256 with a nil key never errors; a non-nil error here would
		// indicate a corrupted build of x/crypto.
		panic(err)
	}
	h.Write(left[:])
	h.Write(right[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// BeltRoot folds every occupied peak (highest rank first) into a single
// root hash, skipping empty ranks. An empty belt's root is the zero hash.
func BeltRoot(belt []*Hash) Hash {
	var acc *Hash
	for i := len(belt) - 1; i >= 0; i-- {
		if belt[i] == nil {
			continue
		}
		if acc == nil {
			v := *belt[i]
			acc = &v
			continue
		}
		combined := CombineHashes(*belt[i], *acc)
		acc = &combined
	}
	if acc == nil {
		return Hash{}
	}
	return *acc
}
