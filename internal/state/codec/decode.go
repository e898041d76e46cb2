package codec

import (
	"bytes"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/jamzig/jamnode/internal/state"
)

// DecodeEta reads the fixed 4-entry entropy array (spec §3 "Eta").
func DecodeEta(r *Reader, ctx *DecodingContext) (state.Eta, error) {
	ctx.PushComponent("Eta")
	defer ctx.Pop()
	var e state.Eta
	for i := range e.Entries {
		ctx.PushIndex(i)
		h, err := r.ReadHash()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			return state.Eta{}, wrapped
		}
		ctx.Pop()
		e.Entries[i] = h
	}
	return e, nil
}

// DecodeTau reads the little-endian u32 timeslot (spec §3 "Tau").
func DecodeTau(r *Reader, ctx *DecodingContext) (state.Tau, error) {
	ctx.PushComponent("Tau")
	defer ctx.Pop()
	v, err := r.ReadUint32()
	if err != nil {
		return state.Tau{}, ctx.Wrap(err)
	}
	return state.Tau{Value: v}, nil
}

// DecodeValidatorRecord reads one fixed-width validator record.
func DecodeValidatorRecord(r *Reader, ctx *DecodingContext) (state.ValidatorRecord, error) {
	var v state.ValidatorRecord
	fields := []struct {
		name string
		dst  []byte
	}{
		{"bandersnatch", v.Bandersnatch[:]},
		{"ed25519", v.Ed25519[:]},
		{"bls", v.Bls[:]},
		{"metadata", v.Metadata[:]},
	}
	for _, f := range fields {
		ctx.PushField(f.name)
		b, err := r.ReadN(len(f.dst))
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			return state.ValidatorRecord{}, wrapped
		}
		ctx.Pop()
		copy(f.dst, b)
	}
	return v, nil
}

// DecodeValidatorSet reads count fixed-width validator records with no
// length prefix (spec §4.6 "Validator set: raw concatenation of
// fixed-width records").
func DecodeValidatorSet(r *Reader, ctx *DecodingContext, count int) (state.ValidatorSet, error) {
	ctx.PushComponent("ValidatorSet")
	defer ctx.Pop()
	vs := state.ValidatorSet{Records: make([]state.ValidatorRecord, count)}
	for i := 0; i < count; i++ {
		ctx.PushIndex(i)
		rec, err := DecodeValidatorRecord(r, ctx)
		ctx.Pop()
		if err != nil {
			return state.ValidatorSet{}, err
		}
		vs.Records[i] = rec
	}
	return vs, nil
}

func decodeTicketBody(r *Reader, ctx *DecodingContext) (state.TicketBody, error) {
	ctx.PushField("id")
	id, err := r.ReadHash()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.TicketBody{}, wrapped
	}
	ctx.Pop()
	ctx.PushField("attempt")
	attempt, err := r.ReadUint8()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.TicketBody{}, wrapped
	}
	ctx.Pop()
	return state.TicketBody{ID: id, Attempt: attempt}, nil
}

// DecodeGamma reads the safrole stage (spec §4.6 "Gamma: validators ∥
// vrf_root ∥ E_nat(tag) ∥ (...) ∥ E_nat(|a|) ∥ a").
func DecodeGamma(r *Reader, ctx *DecodingContext, validatorCount, epochLength int) (state.Gamma, error) {
	ctx.PushComponent("Gamma")
	defer ctx.Pop()

	ctx.PushField("k")
	k, err := DecodeValidatorSet(r, ctx, validatorCount)
	ctx.Pop()
	if err != nil {
		return state.Gamma{}, err
	}

	var g state.Gamma
	g.K = k

	ctx.PushField("z")
	zBytes, err := r.ReadN(144)
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.Gamma{}, wrapped
	}
	ctx.Pop()
	copy(g.Z[:], zBytes)

	ctx.PushField("tag")
	tag, err := r.ReadNatural()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.Gamma{}, wrapped
	}
	ctx.Pop()

	switch state.GammaTag(tag) {
	case state.GammaTagTickets:
		g.STag = state.GammaTagTickets
		g.Tickets = make([]state.TicketBody, epochLength)
		for i := 0; i < epochLength; i++ {
			ctx.PushField("s")
			ctx.PushIndex(i)
			tb, err := decodeTicketBody(r, ctx)
			ctx.Pop()
			ctx.Pop()
			if err != nil {
				return state.Gamma{}, err
			}
			g.Tickets[i] = tb
		}
	case state.GammaTagKeys:
		g.STag = state.GammaTagKeys
		g.Keys = make([]state.BandersnatchPublic, epochLength)
		for i := 0; i < epochLength; i++ {
			ctx.PushField("s")
			ctx.PushIndex(i)
			b, err := r.ReadN(32)
			if err != nil {
				wrapped := ctx.Wrap(err)
				ctx.Pop()
				ctx.Pop()
				return state.Gamma{}, wrapped
			}
			ctx.Pop()
			ctx.Pop()
			copy(g.Keys[i][:], b)
		}
	default:
		return state.Gamma{}, ctx.Wrap(ErrInvalidStateType)
	}

	ctx.PushField("a")
	aLen, err := r.ReadNatural()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.Gamma{}, wrapped
	}
	ctx.Pop()
	g.A = make([]state.TicketBody, aLen)
	for i := range g.A {
		ctx.PushField("a")
		ctx.PushIndex(i)
		tb, err := decodeTicketBody(r, ctx)
		ctx.Pop()
		ctx.Pop()
		if err != nil {
			return state.Gamma{}, err
		}
		g.A[i] = tb
	}

	return g, nil
}

// DecodePhi reads the per-core authorizer queues (spec §4.6 "Phi: for
// each core, exactly Q fixed-width hash slots; all-zero slots mean
// 'empty' and are skipped on decode").
func DecodePhi(r *Reader, ctx *DecodingContext, coreCount, q int) (state.Phi, error) {
	ctx.PushComponent("Phi")
	defer ctx.Pop()
	phi := state.Phi{Queues: make([][]state.Hash, coreCount)}
	var zero state.Hash
	for c := 0; c < coreCount; c++ {
		ctx.PushIndex(c)
		queue := make([]state.Hash, 0, q)
		for s := 0; s < q; s++ {
			h, err := r.ReadHash()
			if err != nil {
				wrapped := ctx.Wrap(err)
				ctx.Pop()
				return state.Phi{}, wrapped
			}
			if h != zero {
				queue = append(queue, h)
			}
		}
		ctx.Pop()
		phi.Queues[c] = queue
	}
	return phi, nil
}

func decodeWorkReport(r *Reader, ctx *DecodingContext) (state.WorkReport, error) {
	ctx.PushField("work_report")
	n, err := r.ReadNatural()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.WorkReport{}, wrapped
	}
	raw, err := r.ReadN(int(n))
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.WorkReport{}, wrapped
	}
	ctx.Pop()
	return state.WorkReport{Raw: raw}, nil
}

// DecodeRho reads the per-core pending-report table (spec §4.6 "Rho: per
// core, one existence marker then {hash[32], work_report, u32 timeslot}
// when present").
func DecodeRho(r *Reader, ctx *DecodingContext, coreCount int) (state.Rho, error) {
	ctx.PushComponent("Rho")
	defer ctx.Pop()
	rho := state.Rho{Cores: make([]state.PendingReport, coreCount)}
	for c := 0; c < coreCount; c++ {
		ctx.PushIndex(c)
		present, err := r.ReadExistence()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			return state.Rho{}, wrapped
		}
		var pr state.PendingReport
		pr.Present = present
		if present {
			h, err := r.ReadHash()
			if err != nil {
				wrapped := ctx.Wrap(err)
				ctx.Pop()
				return state.Rho{}, wrapped
			}
			wr, err := decodeWorkReport(r, ctx)
			if err != nil {
				ctx.Pop()
				return state.Rho{}, err
			}
			ts, err := r.ReadUint32()
			if err != nil {
				wrapped := ctx.Wrap(err)
				ctx.Pop()
				return state.Rho{}, wrapped
			}
			pr.Hash = h
			pr.Report = wr
			pr.Timeslot = ts
		}
		ctx.Pop()
		rho.Cores[c] = pr
	}
	return rho, nil
}

// DecodeXi reads the sliding window of recent work-package hashes (spec
// §4.6 "Xi: for each of epoch_length slots, a u8 count followed by that
// many 32-byte hashes; the decoder also fills a union index").
func DecodeXi(r *Reader, ctx *DecodingContext, epochLength int) (state.Xi, error) {
	ctx.PushComponent("Xi")
	defer ctx.Pop()
	xi := state.Xi{Slots: make([][]state.Hash, epochLength), Union: mapset.NewSet[state.Hash]()}
	for s := 0; s < epochLength; s++ {
		ctx.PushIndex(s)
		count, err := r.ReadUint8()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			return state.Xi{}, wrapped
		}
		slot := make([]state.Hash, count)
		for i := 0; i < int(count); i++ {
			h, err := r.ReadHash()
			if err != nil {
				wrapped := ctx.Wrap(err)
				ctx.Pop()
				return state.Xi{}, wrapped
			}
			slot[i] = h
			xi.Union.Add(h)
		}
		ctx.Pop()
		xi.Slots[s] = slot
	}
	return xi, nil
}

// decodeHashSet reads a length-prefixed set of hashes, rejecting any
// non-strictly-ascending encoding (spec §4.6 "Map/set keys appear in
// strictly ascending order; a non-ascending key ⇒ InvalidFormat").
func decodeHashSet(r *Reader, ctx *DecodingContext, field string) (mapset.Set[state.Hash], error) {
	ctx.PushField(field)
	defer ctx.Pop()
	n, err := r.ReadNatural()
	if err != nil {
		return nil, ctx.Wrap(err)
	}
	set := mapset.NewSet[state.Hash]()
	var prev state.Hash
	for i := 0; i < int(n); i++ {
		ctx.PushIndex(i)
		h, err := r.ReadHash()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			return nil, wrapped
		}
		if i > 0 && bytes.Compare(h[:], prev[:]) <= 0 {
			wrapped := ctx.Wrap(ErrInvalidFormat)
			ctx.Pop()
			return nil, wrapped
		}
		ctx.Pop()
		prev = h
		set.Add(h)
	}
	return set, nil
}

// DecodePsi reads the four judgement hash sets in order (spec §4.6 "Psi:
// four consecutive length-prefixed hash sets in the order good, bad,
// wonky, punish").
func DecodePsi(r *Reader, ctx *DecodingContext) (state.Psi, error) {
	ctx.PushComponent("Psi")
	defer ctx.Pop()
	good, err := decodeHashSet(r, ctx, "good")
	if err != nil {
		return state.Psi{}, err
	}
	bad, err := decodeHashSet(r, ctx, "bad")
	if err != nil {
		return state.Psi{}, err
	}
	wonky, err := decodeHashSet(r, ctx, "wonky")
	if err != nil {
		return state.Psi{}, err
	}
	punish, err := decodeHashSet(r, ctx, "punish")
	if err != nil {
		return state.Psi{}, err
	}
	return state.Psi{Good: good, Bad: bad, Wonky: wonky, Punish: punish}, nil
}

func decodeReportRef(r *Reader, ctx *DecodingContext) (state.ReportRef, error) {
	h, err := r.ReadHash()
	if err != nil {
		return state.ReportRef{}, ctx.Wrap(err)
	}
	er, err := r.ReadHash()
	if err != nil {
		return state.ReportRef{}, ctx.Wrap(err)
	}
	return state.ReportRef{Hash: h, ExportsRoot: er}, nil
}

func decodeBlockInfo(r *Reader, ctx *DecodingContext) (state.BlockInfo, error) {
	var bi state.BlockInfo
	var err error
	if bi.HeaderHash, err = r.ReadHash(); err != nil {
		return state.BlockInfo{}, ctx.Wrap(err)
	}
	if bi.BeefyRoot, err = r.ReadHash(); err != nil {
		return state.BlockInfo{}, ctx.Wrap(err)
	}
	if bi.StateRoot, err = r.ReadHash(); err != nil {
		return state.BlockInfo{}, ctx.Wrap(err)
	}
	n, err := r.ReadNatural()
	if err != nil {
		return state.BlockInfo{}, ctx.Wrap(err)
	}
	bi.Reports = make([]state.ReportRef, n)
	for i := range bi.Reports {
		ctx.PushIndex(i)
		rr, err := decodeReportRef(r, ctx)
		ctx.Pop()
		if err != nil {
			return state.BlockInfo{}, err
		}
		bi.Reports[i] = rr
	}
	return bi, nil
}

// DecodeBeta reads the bounded recent-history window in the canonical
// "beefy root per block" form (spec §4.6 "Beta", §9 resolved Open
// Question) and rebuilds the belt accumulator from each block's
// BeefyRoot.
func DecodeBeta(r *Reader, ctx *DecodingContext) (state.Beta, error) {
	ctx.PushComponent("Beta")
	defer ctx.Pop()

	ctx.PushField("blocks")
	n, err := r.ReadNatural()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.Beta{}, wrapped
	}
	if n > state.MaxRecentBlocks {
		wrapped := ctx.Wrap(ErrInvalidValue)
		ctx.Pop()
		return state.Beta{}, wrapped
	}
	blocks := make([]state.BlockInfo, n)
	var belt []*state.Hash
	for i := range blocks {
		ctx.PushIndex(i)
		bi, err := decodeBlockInfo(r, ctx)
		ctx.Pop()
		if err != nil {
			ctx.Pop()
			return state.Beta{}, err
		}
		blocks[i] = bi
		belt = state.AppendToBelt(belt, bi.BeefyRoot)
	}
	ctx.Pop()

	return state.Beta{Blocks: blocks, Belt: belt}, nil
}

// DecodeChi reads the privileged-service assignment table (spec §4.6
// "Chi: u32 manager ∥ core_count × u32 assign ∥ u32 designate ∥
// E_nat(|m|) ∥ m·(u32 key, u64 value); index 0 decodes as None").
func DecodeChi(r *Reader, ctx *DecodingContext, coreCount int) (state.Chi, error) {
	ctx.PushComponent("Chi")
	defer ctx.Pop()

	ctx.PushField("manager")
	manager, err := r.ReadUint32()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.Chi{}, wrapped
	}
	ctx.Pop()

	assign := make([]uint32, coreCount)
	for i := range assign {
		ctx.PushField("assign")
		ctx.PushIndex(i)
		v, err := r.ReadUint32()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			ctx.Pop()
			return state.Chi{}, wrapped
		}
		ctx.Pop()
		ctx.Pop()
		assign[i] = v
	}

	ctx.PushField("designate")
	designate, err := r.ReadUint32()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.Chi{}, wrapped
	}
	ctx.Pop()

	ctx.PushField("always_accumulate")
	n, err := r.ReadNatural()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.Chi{}, wrapped
	}
	ctx.Pop()
	entries := make([]state.AlwaysAccumulateEntry, n)
	var prevKey uint32
	for i := range entries {
		ctx.PushField("always_accumulate")
		ctx.PushIndex(i)
		key, err := r.ReadUint32()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			ctx.Pop()
			return state.Chi{}, wrapped
		}
		if i > 0 && key <= prevKey {
			wrapped := ctx.Wrap(ErrInvalidFormat)
			ctx.Pop()
			ctx.Pop()
			return state.Chi{}, wrapped
		}
		value, err := r.ReadUint64()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			ctx.Pop()
			return state.Chi{}, wrapped
		}
		ctx.Pop()
		ctx.Pop()
		entries[i] = state.AlwaysAccumulateEntry{Key: key, Value: value}
		prevKey = key
	}

	c := state.Chi{Assign: assign, AlwaysAccumulate: entries}
	if manager != 0 {
		m := manager
		c.Manager = &m
	}
	if designate != 0 {
		d := designate
		c.Designate = &d
	}
	return c, nil
}

func decodePreimageEntry(r *Reader, ctx *DecodingContext) (state.Hash, state.PreimageEntry, error) {
	key, err := r.ReadHash()
	if err != nil {
		return state.Hash{}, state.PreimageEntry{}, ctx.Wrap(err)
	}
	count, err := r.ReadUint8()
	if err != nil {
		return state.Hash{}, state.PreimageEntry{}, ctx.Wrap(err)
	}
	var entry state.PreimageEntry
	entry.Count = count
	for i := 0; i < int(count) && i < 3; i++ {
		v, err := r.ReadUint32()
		if err != nil {
			return state.Hash{}, state.PreimageEntry{}, ctx.Wrap(err)
		}
		entry.Timestamps[i] = v
	}
	return key, entry, nil
}

func decodeServiceAccount(r *Reader, ctx *DecodingContext) (state.ServiceAccount, error) {
	var acc state.ServiceAccount
	var err error
	if acc.CodeHash, err = r.ReadHash(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	if acc.Balance, err = r.ReadUint64(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	if acc.MinItemGas, err = r.ReadUint64(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	if acc.MinMemoGas, err = r.ReadUint64(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	if acc.StorageItems, err = r.ReadUint64(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	if acc.StorageBytes, err = r.ReadUint64(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	if acc.CreationSlot, err = r.ReadUint32(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	if acc.LastAccumulationSlot, err = r.ReadUint32(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	if acc.ParentService, err = r.ReadUint32(); err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}

	n, err := r.ReadNatural()
	if err != nil {
		return state.ServiceAccount{}, ctx.Wrap(err)
	}
	acc.Preimages = make(map[state.Hash]state.PreimageEntry, n)
	var prev state.Hash
	for i := 0; i < int(n); i++ {
		ctx.PushIndex(i)
		key, entry, err := decodePreimageEntry(r, ctx)
		if err != nil {
			ctx.Pop()
			return state.ServiceAccount{}, err
		}
		if i > 0 && bytes.Compare(key[:], prev[:]) <= 0 {
			wrapped := ctx.Wrap(ErrInvalidFormat)
			ctx.Pop()
			return state.ServiceAccount{}, wrapped
		}
		ctx.Pop()
		prev = key
		acc.Preimages[key] = entry
	}
	return acc, nil
}

// DecodeDelta reads the service-account table, ordered ascending by
// service id (spec §4.6 ordering invariant; §3 "Delta").
func DecodeDelta(r *Reader, ctx *DecodingContext) (state.Delta, error) {
	ctx.PushComponent("Delta")
	defer ctx.Pop()

	n, err := r.ReadNatural()
	if err != nil {
		return state.Delta{}, ctx.Wrap(err)
	}
	entries := make([]state.ServiceEntry, n)
	var prevID uint32
	for i := range entries {
		ctx.PushIndex(i)
		id, err := r.ReadUint32()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			return state.Delta{}, wrapped
		}
		if i > 0 && id <= prevID {
			wrapped := ctx.Wrap(ErrInvalidFormat)
			ctx.Pop()
			return state.Delta{}, wrapped
		}
		acc, err := decodeServiceAccount(r, ctx)
		ctx.Pop()
		if err != nil {
			return state.Delta{}, err
		}
		entries[i] = state.ServiceEntry{ID: id, Account: acc}
		prevID = id
	}
	return state.Delta{Services: entries}, nil
}

func decodeValidatorStats(r *Reader, ctx *DecodingContext) (state.ValidatorStats, error) {
	var v state.ValidatorStats
	var err error
	if v.BlocksProduced, err = r.ReadUint32(); err != nil {
		return v, ctx.Wrap(err)
	}
	if v.TicketsSubmitted, err = r.ReadUint32(); err != nil {
		return v, ctx.Wrap(err)
	}
	if v.PreimagesCount, err = r.ReadUint32(); err != nil {
		return v, ctx.Wrap(err)
	}
	if v.PreimagesSize, err = r.ReadUint32(); err != nil {
		return v, ctx.Wrap(err)
	}
	if v.GuaranteesCount, err = r.ReadUint32(); err != nil {
		return v, ctx.Wrap(err)
	}
	if v.AssurancesCount, err = r.ReadUint32(); err != nil {
		return v, ctx.Wrap(err)
	}
	return v, nil
}

func decodeCoreStats(r *Reader, ctx *DecodingContext) (state.CoreStats, error) {
	var c state.CoreStats
	var err error
	if c.GasUsed, err = r.ReadUint64(); err != nil {
		return c, ctx.Wrap(err)
	}
	if c.ImportsCount, err = r.ReadUint32(); err != nil {
		return c, ctx.Wrap(err)
	}
	if c.ExtrinsicsCount, err = r.ReadUint32(); err != nil {
		return c, ctx.Wrap(err)
	}
	if c.ExtrinsicsSize, err = r.ReadUint32(); err != nil {
		return c, ctx.Wrap(err)
	}
	if c.ExportsCount, err = r.ReadUint32(); err != nil {
		return c, ctx.Wrap(err)
	}
	if c.BundleSize, err = r.ReadUint32(); err != nil {
		return c, ctx.Wrap(err)
	}
	return c, nil
}

func decodeServiceStats(r *Reader, ctx *DecodingContext) (state.ServiceStats, error) {
	var s state.ServiceStats
	var err error
	if s.ProvidedCount, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.ProvidedSize, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.RefinementCount, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.RefinementGasUsed, err = r.ReadUint64(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.ImportsCount, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.ExportsCount, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.ExtrinsicsSize, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.ExtrinsicsCount, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.AccumulateGasUsed, err = r.ReadUint64(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.AccumulateCount, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.OnTransfersGasUsed, err = r.ReadUint64(); err != nil {
		return s, ctx.Wrap(err)
	}
	if s.OnTransfersCount, err = r.ReadUint32(); err != nil {
		return s, ctx.Wrap(err)
	}
	return s, nil
}

// DecodePi reads the validator/core/service activity table (spec §4.6
// "Pi: two fixed-length validator-stat arrays ... then a length-prefixed
// service-stat map").
func DecodePi(r *Reader, ctx *DecodingContext, validatorCount, coreCount int) (state.Pi, error) {
	ctx.PushComponent("Pi")
	defer ctx.Pop()

	var pi state.Pi
	pi.CurrentValidators = make([]state.ValidatorStats, validatorCount)
	for i := range pi.CurrentValidators {
		ctx.PushField("current_validators")
		ctx.PushIndex(i)
		v, err := decodeValidatorStats(r, ctx)
		ctx.Pop()
		ctx.Pop()
		if err != nil {
			return state.Pi{}, err
		}
		pi.CurrentValidators[i] = v
	}
	pi.PreviousValidators = make([]state.ValidatorStats, validatorCount)
	for i := range pi.PreviousValidators {
		ctx.PushField("previous_validators")
		ctx.PushIndex(i)
		v, err := decodeValidatorStats(r, ctx)
		ctx.Pop()
		ctx.Pop()
		if err != nil {
			return state.Pi{}, err
		}
		pi.PreviousValidators[i] = v
	}
	pi.Cores = make([]state.CoreStats, coreCount)
	for i := range pi.Cores {
		ctx.PushField("cores")
		ctx.PushIndex(i)
		c, err := decodeCoreStats(r, ctx)
		ctx.Pop()
		ctx.Pop()
		if err != nil {
			return state.Pi{}, err
		}
		pi.Cores[i] = c
	}

	ctx.PushField("services")
	n, err := r.ReadNatural()
	if err != nil {
		wrapped := ctx.Wrap(err)
		ctx.Pop()
		return state.Pi{}, wrapped
	}
	ctx.Pop()
	pi.Services = make([]state.ServiceStatsEntry, n)
	var prevID uint32
	for i := range pi.Services {
		ctx.PushField("services")
		ctx.PushIndex(i)
		id, err := r.ReadUint32()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			ctx.Pop()
			return state.Pi{}, wrapped
		}
		if i > 0 && id <= prevID {
			wrapped := ctx.Wrap(ErrInvalidFormat)
			ctx.Pop()
			ctx.Pop()
			return state.Pi{}, wrapped
		}
		stats, err := decodeServiceStats(r, ctx)
		ctx.Pop()
		ctx.Pop()
		if err != nil {
			return state.Pi{}, err
		}
		pi.Services[i] = state.ServiceStatsEntry{ID: id, Stats: stats}
		prevID = id
	}
	return pi, nil
}

// DecodeTheta reads the sequence of accumulation outputs (spec §4.6
// "Theta: length prefix then (u32 service_id, hash[32]) records, ordering
// not required").
func DecodeTheta(r *Reader, ctx *DecodingContext) (state.Theta, error) {
	ctx.PushComponent("Theta")
	defer ctx.Pop()
	n, err := r.ReadNatural()
	if err != nil {
		return state.Theta{}, ctx.Wrap(err)
	}
	entries := make([]state.ThetaEntry, n)
	for i := range entries {
		ctx.PushIndex(i)
		id, err := r.ReadUint32()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			return state.Theta{}, wrapped
		}
		h, err := r.ReadHash()
		if err != nil {
			wrapped := ctx.Wrap(err)
			ctx.Pop()
			return state.Theta{}, wrapped
		}
		ctx.Pop()
		entries[i] = state.ThetaEntry{ServiceID: id, Hash: h}
	}
	return state.Theta{Entries: entries}, nil
}
