package rawdata

import (
	"github.com/OneOfOne/xxhash"
	"github.com/edgevehicle/agentcore/pkg/signal"
)

// handleGenerator derives a RawDataHandle from the ingest timestamp plus a
// process-wide monotonically increasing 8-bit counter that skips zero
// (spec.md §4.A "Handle generation"). The counter byte occupies the low 8
// bits, guaranteeing the result is never zero regardless of timestamp.
//
// Open Question (d) ("collision probability at very high ingest rates is
// not bounded by the source beyond avoiding zero") is resolved here by
// folding a content hash of the pushed bytes into the upper 24 bits
// alongside the timestamp, so two pushes landing on the same millisecond
// and the same counter value (a 1-in-256-per-ms coincidence) still diverge
// unless their payloads also hash identically. This is a best-effort
// widening, not a hard uniqueness guarantee, matching the source's own
// stated behavior.
type handleGenerator struct {
	counter uint8
}

func (g *handleGenerator) next(timestampMs uint64, payload []byte) signal.RawDataHandle {
	g.counter++
	if g.counter == 0 {
		g.counter = 1
	}

	seed := uint32(timestampMs)
	if n := len(payload); n > 0 {
		prefix := payload
		if n > 32 {
			prefix = payload[:32]
		}
		seed ^= uint32(xxhash.Checksum64(prefix))
	}

	h := (seed << 8) | uint32(g.counter)
	if h == 0 {
		h = uint32(g.counter)
	}
	return signal.RawDataHandle(h)
}

// checksum64 computes the diagnostic content checksum getStatistics
// surfaces for the most recently evicted frame of a type.
func checksum64(payload []byte) uint64 {
	return xxhash.Checksum64(payload)
}
