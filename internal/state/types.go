// Package state defines the typed JAM protocol state entities (spec §3
// "State Entities"): Eta, Tau, the validator set, Gamma, Phi, Rho, Xi,
// Psi, Beta, Chi, Delta, and Pi. Every entity here is a pure value type;
// encoding and decoding live in the sibling codec package.
package state

import mapset "github.com/deckarep/golang-set/v2"

// Hash is the protocol's uniform 32-byte digest type.
type Hash [32]byte

// Config holds the protocol parameters every container-sized entity is
// parameterized over (spec §9 Design Notes: "Generic core counts" —
// stored as immutable configuration fields rather than compile-time
// generics, since Go lacks const generics over array length).
type Config struct {
	CoreCount   uint32
	EpochLength uint32
	Q           uint32 // Phi's per-core authorizer queue capacity
}

// Eta is the protocol entropy accumulator (spec §3 "Eta").
type Eta struct {
	Entries [4]Hash
}

// Tau is the current timeslot (spec §3 "Tau").
type Tau struct {
	Value uint32
}

// ValidatorRecord is one validator's fixed-width key material (spec §3
// "ValidatorSet").
type ValidatorRecord struct {
	Bandersnatch [32]byte
	Ed25519      [32]byte
	Bls          [144]byte
	Metadata     [128]byte
}

// ValidatorSet is the protocol's active validator list.
type ValidatorSet struct {
	Records []ValidatorRecord
}

// BandersnatchPublic is a bare Bandersnatch public key, used for Gamma's
// epoch-key fallback variant.
type BandersnatchPublic [32]byte

// TicketBody is one safrole ticket: a VRF output id and the attempt index
// that produced it. The spec names "ticket bodies" without enumerating
// fields; this shape follows the canonical JAM ticket record.
type TicketBody struct {
	ID      Hash
	Attempt uint8
}

// GammaTag discriminates Gamma.S's tagged union (spec §4.6 "Gamma.s: 0 =
// tickets, 1 = keys").
type GammaTag uint8

const (
	GammaTagTickets GammaTag = 0
	GammaTagKeys    GammaTag = 1
)

// Gamma is the current safrole stage (spec §3 "Gamma").
type Gamma struct {
	K ValidatorSet
	Z [144]byte // VRF root

	STag    GammaTag
	Tickets []TicketBody         // populated iff STag == GammaTagTickets, length EpochLength
	Keys    []BandersnatchPublic // populated iff STag == GammaTagKeys, length EpochLength

	A []TicketBody // ordered sequence of accumulated ticket bodies
}

// Phi is the per-core authorizer queue (spec §3 "Phi"). Each inner slice
// holds only the non-zero hashes actually queued for that core; the wire
// format's fixed Q slots with all-zero placeholders are reconstructed by
// the codec, not retained here.
type Phi struct {
	Queues [][]Hash // len(Queues) == Config.CoreCount, each len <= Config.Q
}

// WorkReport is carried opaquely: the spec treats its internal layout as
// out of scope for this repository (§1 "Non-goals"), so the state model
// preserves it as an owned, length-prefixed byte blob sufficient for a
// faithful round trip without interpreting its structure.
type WorkReport struct {
	Raw []byte
}

// PendingReport is one core's in-flight work report (spec §3 "Rho").
type PendingReport struct {
	Present   bool
	Hash      Hash
	Report    WorkReport
	Timeslot  uint32
}

// Rho is the per-core pending-report table.
type Rho struct {
	Cores []PendingReport // len == Config.CoreCount
}

// Xi is the sliding window of recently seen work-package hashes (spec §3
// "Xi").
type Xi struct {
	Slots [][]Hash // len == Config.EpochLength
	Union mapset.Set[Hash]
}

// NewXi returns an Xi sized for cfg with an empty union index.
func NewXi(cfg Config) Xi {
	return Xi{
		Slots: make([][]Hash, cfg.EpochLength),
		Union: mapset.NewSet[Hash](),
	}
}

// Psi holds the four judgement hash sets (spec §3 "Psi"). Punish holds
// public keys rather than work-report hashes but shares the 32-byte shape.
type Psi struct {
	Good   mapset.Set[Hash]
	Bad    mapset.Set[Hash]
	Wonky  mapset.Set[Hash]
	Punish mapset.Set[Hash]
}

// NewPsi returns a Psi with four empty sets.
func NewPsi() Psi {
	return Psi{
		Good:   mapset.NewSet[Hash](),
		Bad:    mapset.NewSet[Hash](),
		Wonky:  mapset.NewSet[Hash](),
		Punish: mapset.NewSet[Hash](),
	}
}

// ReportRef is one (work-report hash, exports root) pair recorded against
// a recent block (spec §4.6 "Beta").
type ReportRef struct {
	Hash        Hash
	ExportsRoot Hash
}

// BlockInfo is one entry of Beta's recent-history window, in the
// canonical "beefy root per block" form (spec §9 Design Notes: resolved
// Open Question in favor of this form over the legacy MMR-peak-vector
// variant).
type BlockInfo struct {
	HeaderHash Hash
	BeefyRoot  Hash
	StateRoot  Hash
	Reports    []ReportRef
}

// Beta is the bounded recent-history window (spec §3 "Beta": "cap 8").
// Belt holds the MMR peak accumulator threaded across the window; see
// the sibling mmr.go for how BeefyRoot values fold into it. A nil entry
// means "no peak at this rank", distinct from any real hash value.
type Beta struct {
	Blocks []BlockInfo // len <= 8
	Belt   []*Hash     // MMR peaks over the Blocks' BeefyRoot values
}

// MaxRecentBlocks is Beta's bounded length.
const MaxRecentBlocks = 8

// AlwaysAccumulateEntry is one (service id, gas limit) pair from Chi's
// always-accumulate map, kept as a slice sorted ascending by Key so the
// ordering invariant (spec §4.6 "always_accumulate keys strictly
// ascending") is structural rather than incidental.
type AlwaysAccumulateEntry struct {
	Key   uint32
	Value uint64
}

// Chi holds the protocol's privileged-service assignments (spec §3
// "Chi"). Manager and Designate use nil to mean "None" (wire index 0).
type Chi struct {
	Manager          *uint32
	Assign           []uint32 // len == Config.CoreCount
	Designate        *uint32
	AlwaysAccumulate []AlwaysAccumulateEntry // ascending by Key
}

// PreimageEntry tracks when a preimage entered, was requested-for-
// removal, and was removed; zero means "not yet reached" (spec §3
// "Delta": "up to 3 timestamps per key").
type PreimageEntry struct {
	Timestamps [3]uint32
	Count      uint8 // how many of the three timestamps are populated
}

// ServiceAccount is one service's on-chain footprint (spec §3 "Delta").
type ServiceAccount struct {
	CodeHash             Hash
	Balance              uint64
	MinItemGas           uint64 // gas floor for on-transfer invocation
	MinMemoGas           uint64 // gas floor for accumulate invocation
	StorageItems         uint64
	StorageBytes         uint64
	CreationSlot         uint32
	LastAccumulationSlot uint32
	ParentService        uint32
	Preimages            map[Hash]PreimageEntry
}

// ServiceEntry is one (id, account) pair, used to keep Delta's wire
// ordering explicit; Delta.Lookup scans these entries linearly.
type ServiceEntry struct {
	ID      uint32
	Account ServiceAccount
}

// Delta is the protocol's service-account table (spec §3 "Delta"),
// ordered ascending by service id on the wire.
type Delta struct {
	Services []ServiceEntry
}

// Lookup returns the account for id, if present.
func (d Delta) Lookup(id uint32) (ServiceAccount, bool) {
	for _, e := range d.Services {
		if e.ID == id {
			return e.Account, true
		}
	}
	return ServiceAccount{}, false
}

// ValidatorStats is one validator's per-epoch activity counters. The spec
// notes "field widths are specified per record" without enumerating them
// (§4.6 "Pi"); this set follows the canonical JAM activity-record fields.
type ValidatorStats struct {
	BlocksProduced   uint32
	TicketsSubmitted uint32
	PreimagesCount   uint32
	PreimagesSize    uint32
	GuaranteesCount  uint32
	AssurancesCount  uint32
}

// CoreStats is one core's per-block activity counters.
type CoreStats struct {
	GasUsed         uint64
	ImportsCount    uint32
	ExtrinsicsCount uint32
	ExtrinsicsSize  uint32
	ExportsCount    uint32
	BundleSize      uint32
}

// ServiceStats is one service's per-epoch activity counters.
type ServiceStats struct {
	ProvidedCount      uint32
	ProvidedSize       uint32
	RefinementCount    uint32
	RefinementGasUsed  uint64
	ImportsCount       uint32
	ExportsCount       uint32
	ExtrinsicsSize     uint32
	ExtrinsicsCount    uint32
	AccumulateGasUsed  uint64
	AccumulateCount    uint32
	OnTransfersGasUsed uint64
	OnTransfersCount   uint32
}

// ServiceStatsEntry pairs a service id with its stats, ordered ascending
// by ID on the wire (spec §4.6 "length-prefixed service-stat map").
type ServiceStatsEntry struct {
	ID    uint32
	Stats ServiceStats
}

// Pi is the protocol's validator/core/service activity table (spec §3
// "Pi").
type Pi struct {
	CurrentValidators  []ValidatorStats // len == validator count
	PreviousValidators []ValidatorStats
	Cores              []CoreStats // len == Config.CoreCount
	Services           []ServiceStatsEntry
}

// ThetaEntry is one accumulation output (spec §3 "Theta").
type ThetaEntry struct {
	ServiceID uint32
	Hash      Hash
}

// Theta is the sequence of accumulation outputs for the current block.
type Theta struct {
	Entries []ThetaEntry
}

// State is the top-level container owning every entity (spec §3: "All
// entities are owned by the top-level state container").
type State struct {
	Config Config

	Eta   Eta
	Tau   Tau
	Kappa ValidatorSet // active validator set
	Gamma Gamma
	Phi   Phi
	Rho   Rho
	Xi    Xi
	Psi   Psi
	Beta  Beta
	Chi   Chi
	Delta Delta
	Pi    Pi
	Theta Theta
}
