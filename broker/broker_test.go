package broker

import (
	"testing"

	"github.com/rustyeddy/cfdsim/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotValued(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		CurrentPrice: 160,
		OpenPositions: []ledger.Position{
			{ID: "a", Side: ledger.Buy, Lots: 1, OpenPrice: 150.75},
			{ID: "b", Side: ledger.Sell, Lots: 2, OpenPrice: 149.25},
		},
	}

	got := s.Valued()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.InDelta(t, 9.25, got[0].UnrealizedPL, 1e-9)
	assert.InDelta(t, -21.5, got[1].UnrealizedPL, 1e-9)

	assert.Empty(t, Snapshot{}.Valued())
}
