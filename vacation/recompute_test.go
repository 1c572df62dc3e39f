package vacation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/hr-backend/vacation"
)

// =============================================================================
// LEDGER REPLAY
// =============================================================================

func TestReplay_GrantThenConsumption(t *testing.T) {
	// GIVEN: an ALTA grant of 30 followed by a 23-day GOCE
	entries := []vacation.LedgerEntry{
		{Kind: "2023-2024", Days: 30},
		{Kind: vacation.KindGoce, Days: -23},
	}

	taken, pending, truncated := vacation.Replay("2023-2024", entries)

	assert.Equal(t, 23, taken)
	assert.Equal(t, 7, pending)
	assert.Equal(t, 0, truncated)
}

func TestReplay_AllConsumptionKindsDrawAlike(t *testing.T) {
	entries := []vacation.LedgerEntry{
		{Kind: "2024-2025", Days: 30},
		{Kind: vacation.KindGoce, Days: -5},
		{Kind: vacation.KindSolicitud, Days: -7},
		{Kind: vacation.KindConvenio, Days: -3},
	}

	taken, pending, _ := vacation.Replay("2024-2025", entries)

	assert.Equal(t, 15, taken)
	assert.Equal(t, 15, pending)
}

func TestReplay_AdjustmentIsSigned(t *testing.T) {
	entries := []vacation.LedgerEntry{
		{Kind: "2024-2025", Days: 30},
		{Kind: vacation.KindAjuste, Days: -10},
		{Kind: vacation.KindAjuste, Days: 2},
	}

	_, pending, _ := vacation.Replay("2024-2025", entries)

	assert.Equal(t, 22, pending)
}

func TestReplay_TruncatedAccumulates(t *testing.T) {
	entries := []vacation.LedgerEntry{
		{Kind: vacation.KindTrunco, Days: 5},
		{Kind: vacation.KindTrunco, Days: 2},
	}

	_, _, truncated := vacation.Replay("2025-2026", entries)

	assert.Equal(t, 7, truncated)
}

func TestReplay_PendingFloorsAtZero(t *testing.T) {
	// Over-consumption relative to the grant cannot drive pending negative.
	entries := []vacation.LedgerEntry{
		{Kind: "2024-2025", Days: 10},
		{Kind: vacation.KindGoce, Days: -15},
	}

	taken, pending, _ := vacation.Replay("2024-2025", entries)

	assert.Equal(t, 15, taken)
	assert.Equal(t, 0, pending)
}

func TestReplay_GrantResetsPending(t *testing.T) {
	// A later grant movement resets pending to its recorded value, it does
	// not add to the running balance.
	entries := []vacation.LedgerEntry{
		{Kind: "2024-2025", Days: 30},
		{Kind: vacation.KindGoce, Days: -10},
		{Kind: "2024-2025", Days: 30},
	}

	_, pending, _ := vacation.Replay("2024-2025", entries)

	assert.Equal(t, 30, pending)
}

func TestReplay_Idempotent(t *testing.T) {
	entries := []vacation.LedgerEntry{
		{Kind: "2024-2025", Days: 30},
		{Kind: vacation.KindConvenio, Days: -3},
		{Kind: vacation.KindAjuste, Days: 1},
		{Kind: vacation.KindTrunco, Days: 4},
	}

	t1, p1, tr1 := vacation.Replay("2024-2025", entries)
	t2, p2, tr2 := vacation.Replay("2024-2025", entries)

	assert.Equal(t, t1, t2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, tr1, tr2)
}

func TestReplay_UnknownKindsIgnored(t *testing.T) {
	entries := []vacation.LedgerEntry{
		{Kind: "2024-2025", Days: 30},
		{Kind: "2019-2020", Days: 30}, // another period's grant
	}

	_, pending, _ := vacation.Replay("2024-2025", entries)

	assert.Equal(t, 30, pending)
}
