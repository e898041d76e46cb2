package codec

import (
	"bytes"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/jamzig/jamnode/internal/state"
)

// EncodeEta writes the fixed 4-entry entropy array.
func EncodeEta(w *Writer, e state.Eta) {
	for _, h := range e.Entries {
		w.WriteHash(h)
	}
}

// EncodeTau writes the little-endian u32 timeslot.
func EncodeTau(w *Writer, t state.Tau) { w.WriteUint32(t.Value) }

func encodeValidatorRecord(w *Writer, v state.ValidatorRecord) {
	w.WriteBytes(v.Bandersnatch[:])
	w.WriteBytes(v.Ed25519[:])
	w.WriteBytes(v.Bls[:])
	w.WriteBytes(v.Metadata[:])
}

// EncodeValidatorSet writes the raw concatenation of fixed-width records.
func EncodeValidatorSet(w *Writer, vs state.ValidatorSet) {
	for _, rec := range vs.Records {
		encodeValidatorRecord(w, rec)
	}
}

func encodeTicketBody(w *Writer, tb state.TicketBody) {
	w.WriteHash(tb.ID)
	w.WriteByte(tb.Attempt)
}

// EncodeGamma writes the safrole stage.
func EncodeGamma(w *Writer, g state.Gamma) {
	EncodeValidatorSet(w, g.K)
	w.WriteBytes(g.Z[:])
	w.WriteNatural(uint64(g.STag))
	switch g.STag {
	case state.GammaTagTickets:
		for _, tb := range g.Tickets {
			encodeTicketBody(w, tb)
		}
	case state.GammaTagKeys:
		for _, k := range g.Keys {
			w.WriteBytes(k[:])
		}
	}
	w.WriteNatural(uint64(len(g.A)))
	for _, tb := range g.A {
		encodeTicketBody(w, tb)
	}
}

// EncodePhi writes the per-core authorizer queues, padding each queue
// back out to q slots with zero hashes (the wire inverse of DecodePhi's
// "all-zero slots mean empty").
func EncodePhi(w *Writer, phi state.Phi, q int) {
	var zero state.Hash
	for _, queue := range phi.Queues {
		for i := 0; i < q; i++ {
			if i < len(queue) {
				w.WriteHash(queue[i])
			} else {
				w.WriteHash(zero)
			}
		}
	}
}

func encodeWorkReport(w *Writer, wr state.WorkReport) {
	w.WriteNatural(uint64(len(wr.Raw)))
	w.WriteBytes(wr.Raw)
}

// EncodeRho writes the per-core pending-report table.
func EncodeRho(w *Writer, rho state.Rho) {
	for _, pr := range rho.Cores {
		w.WriteExistence(pr.Present)
		if pr.Present {
			w.WriteHash(pr.Hash)
			encodeWorkReport(w, pr.Report)
			w.WriteUint32(pr.Timeslot)
		}
	}
}

// EncodeXi writes the sliding window of recent work-package hashes.
func EncodeXi(w *Writer, xi state.Xi) {
	for _, slot := range xi.Slots {
		w.WriteByte(byte(len(slot)))
		for _, h := range slot {
			w.WriteHash(h)
		}
	}
}

func sortedHashes(s mapset.Set[state.Hash]) []state.Hash {
	out := s.ToSlice()
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func encodeHashSet(w *Writer, s mapset.Set[state.Hash]) {
	sorted := sortedHashes(s)
	w.WriteNatural(uint64(len(sorted)))
	for _, h := range sorted {
		w.WriteHash(h)
	}
}

// EncodePsi writes the four judgement hash sets in order.
func EncodePsi(w *Writer, psi state.Psi) {
	encodeHashSet(w, psi.Good)
	encodeHashSet(w, psi.Bad)
	encodeHashSet(w, psi.Wonky)
	encodeHashSet(w, psi.Punish)
}

func encodeReportRef(w *Writer, rr state.ReportRef) {
	w.WriteHash(rr.Hash)
	w.WriteHash(rr.ExportsRoot)
}

func encodeBlockInfo(w *Writer, bi state.BlockInfo) {
	w.WriteHash(bi.HeaderHash)
	w.WriteHash(bi.BeefyRoot)
	w.WriteHash(bi.StateRoot)
	w.WriteNatural(uint64(len(bi.Reports)))
	for _, rr := range bi.Reports {
		encodeReportRef(w, rr)
	}
}

// EncodeBeta writes the recent-history window in the canonical "beefy
// root per block" form. Belt is a derived accumulator, not re-encoded —
// a decoder rebuilds it from Blocks.
func EncodeBeta(w *Writer, beta state.Beta) {
	w.WriteNatural(uint64(len(beta.Blocks)))
	for _, bi := range beta.Blocks {
		encodeBlockInfo(w, bi)
	}
}

// EncodeChi writes the privileged-service assignment table.
func EncodeChi(w *Writer, chi state.Chi) {
	if chi.Manager != nil {
		w.WriteUint32(*chi.Manager)
	} else {
		w.WriteUint32(0)
	}
	for _, a := range chi.Assign {
		w.WriteUint32(a)
	}
	if chi.Designate != nil {
		w.WriteUint32(*chi.Designate)
	} else {
		w.WriteUint32(0)
	}
	w.WriteNatural(uint64(len(chi.AlwaysAccumulate)))
	for _, e := range chi.AlwaysAccumulate {
		w.WriteUint32(e.Key)
		w.WriteUint64(e.Value)
	}
}

func encodeServiceAccount(w *Writer, acc state.ServiceAccount) {
	w.WriteHash(acc.CodeHash)
	w.WriteUint64(acc.Balance)
	w.WriteUint64(acc.MinItemGas)
	w.WriteUint64(acc.MinMemoGas)
	w.WriteUint64(acc.StorageItems)
	w.WriteUint64(acc.StorageBytes)
	w.WriteUint32(acc.CreationSlot)
	w.WriteUint32(acc.LastAccumulationSlot)
	w.WriteUint32(acc.ParentService)

	keys := make([]state.Hash, 0, len(acc.Preimages))
	for k := range acc.Preimages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })

	w.WriteNatural(uint64(len(keys)))
	for _, k := range keys {
		entry := acc.Preimages[k]
		w.WriteHash(k)
		w.WriteByte(entry.Count)
		for i := 0; i < int(entry.Count) && i < 3; i++ {
			w.WriteUint32(entry.Timestamps[i])
		}
	}
}

// EncodeDelta writes the service-account table, ordered ascending by id.
func EncodeDelta(w *Writer, delta state.Delta) {
	entries := append([]state.ServiceEntry{}, delta.Services...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	w.WriteNatural(uint64(len(entries)))
	for _, e := range entries {
		w.WriteUint32(e.ID)
		encodeServiceAccount(w, e.Account)
	}
}

func encodeValidatorStats(w *Writer, v state.ValidatorStats) {
	w.WriteUint32(v.BlocksProduced)
	w.WriteUint32(v.TicketsSubmitted)
	w.WriteUint32(v.PreimagesCount)
	w.WriteUint32(v.PreimagesSize)
	w.WriteUint32(v.GuaranteesCount)
	w.WriteUint32(v.AssurancesCount)
}

func encodeCoreStats(w *Writer, c state.CoreStats) {
	w.WriteUint64(c.GasUsed)
	w.WriteUint32(c.ImportsCount)
	w.WriteUint32(c.ExtrinsicsCount)
	w.WriteUint32(c.ExtrinsicsSize)
	w.WriteUint32(c.ExportsCount)
	w.WriteUint32(c.BundleSize)
}

func encodeServiceStats(w *Writer, s state.ServiceStats) {
	w.WriteUint32(s.ProvidedCount)
	w.WriteUint32(s.ProvidedSize)
	w.WriteUint32(s.RefinementCount)
	w.WriteUint64(s.RefinementGasUsed)
	w.WriteUint32(s.ImportsCount)
	w.WriteUint32(s.ExportsCount)
	w.WriteUint32(s.ExtrinsicsSize)
	w.WriteUint32(s.ExtrinsicsCount)
	w.WriteUint64(s.AccumulateGasUsed)
	w.WriteUint32(s.AccumulateCount)
	w.WriteUint64(s.OnTransfersGasUsed)
	w.WriteUint32(s.OnTransfersCount)
}

// EncodePi writes the validator/core/service activity table.
func EncodePi(w *Writer, pi state.Pi) {
	for _, v := range pi.CurrentValidators {
		encodeValidatorStats(w, v)
	}
	for _, v := range pi.PreviousValidators {
		encodeValidatorStats(w, v)
	}
	for _, c := range pi.Cores {
		encodeCoreStats(w, c)
	}
	entries := append([]state.ServiceStatsEntry{}, pi.Services...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	w.WriteNatural(uint64(len(entries)))
	for _, e := range entries {
		w.WriteUint32(e.ID)
		encodeServiceStats(w, e.Stats)
	}
}

// EncodeTheta writes the sequence of accumulation outputs, preserving
// caller-supplied order (spec §4.6 "ordering not required but
// preserved").
func EncodeTheta(w *Writer, theta state.Theta) {
	w.WriteNatural(uint64(len(theta.Entries)))
	for _, e := range theta.Entries {
		w.WriteUint32(e.ServiceID)
		w.WriteHash(e.Hash)
	}
}
