package vacation

// =============================================================================
// LEDGER REPLAY - Rebuild period counters from surviving movements
// =============================================================================

// Replay recomputes taken/pending/truncated for one period from its movement
// ledger, replacing whatever the denormalized counters said before. It runs
// after ad-hoc ledger edits (movement deletion) so the ledger stays
// authoritative over the cached counters.
//
// Fixed replay rule, applied in ledger order:
//   - grant (kind == period label): pending resets to the recorded day value
//   - GOCE / SOLICITUD_VACACIONES / CONVENIO: magnitude moves pending -> taken
//   - AJUSTE: signed delta applied to pending
//   - TRUNCO: magnitude added to truncated
//
// Every counter floors at 0. Replay is idempotent: the same ledger always
// yields the same counters.
func Replay(label string, entries []LedgerEntry) (taken, pending, truncated int) {
	for _, e := range entries {
		switch {
		case e.Kind == label:
			pending = abs(e.Days)
		case IsConsumption(e.Kind):
			d := abs(e.Days)
			pending -= d
			taken += d
		case e.Kind == KindAjuste:
			pending += e.Days
		case e.Kind == KindTrunco:
			truncated += abs(e.Days)
		}
		if pending < 0 {
			pending = 0
		}
	}
	if taken < 0 {
		taken = 0
	}
	if truncated < 0 {
		truncated = 0
	}
	return taken, pending, truncated
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
