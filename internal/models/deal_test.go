package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDeal_MinimumPolicy(t *testing.T) {
	refs := map[string]Reference{
		"philibert": {Name: "philibert", Price: 25.00},
		"agorajeux": {Name: "agorajeux", Price: 30.00},
	}

	deal := ComputeDeal(20.00, refs, MinReferencePrice("okkazeo"))

	assert.InDelta(t, -5.00, deal.Price, 1e-9)
	assert.InDelta(t, -20.0, deal.Percentage, 1e-9)
}

func TestComputeDeal_ExcludesMarketplaceReference(t *testing.T) {
	refs := map[string]Reference{
		"okkazeo":   {Name: "okkazeo", Price: 20.00},
		"philibert": {Name: "philibert", Price: 40.00},
	}

	deal := ComputeDeal(20.00, refs, MinReferencePrice("okkazeo"))

	assert.InDelta(t, -20.00, deal.Price, 1e-9)
	assert.InDelta(t, -50.0, deal.Percentage, 1e-9)
}

func TestComputeDeal_NoUsableReference(t *testing.T) {
	refs := map[string]Reference{
		"okkazeo": {Name: "okkazeo", Price: 20.00},
	}

	deal := ComputeDeal(20.00, refs, MinReferencePrice("okkazeo"))
	assert.Equal(t, Deal{}, deal)

	deal = ComputeDeal(20.00, nil, MinReferencePrice("okkazeo"))
	assert.Equal(t, Deal{}, deal)
}

func TestComputeDeal_Deterministic(t *testing.T) {
	refs := map[string]Reference{
		"philibert":  {Name: "philibert", Price: 31.50},
		"ultrajeux":  {Name: "ultrajeux", Price: 29.90},
		"ludocortex": {Name: "ludocortex", Price: 34.00},
	}
	policy := MinReferencePrice("okkazeo")

	first := ComputeDeal(25.00, refs, policy)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeDeal(25.00, refs, policy))
	}
}

func TestReview_ComputeAverageNote(t *testing.T) {
	rev := Review{}
	rev.ComputeAverageNote()
	assert.Zero(t, rev.AverageNote)

	rev.SetReviewer(Reviewer{Name: "trictrac", Note: 8.0, Number: 12})
	assert.InDelta(t, 8.0, rev.AverageNote, 1e-9)

	rev.SetReviewer(Reviewer{Name: "bgg", Note: 7.0, Number: 240})
	assert.InDelta(t, 7.5, rev.AverageNote, 1e-9)

	// re-enrichment overwrites, never appends
	rev.SetReviewer(Reviewer{Name: "bgg", Note: 9.0, Number: 250})
	assert.Len(t, rev.Reviews, 2)
	assert.InDelta(t, 8.5, rev.AverageNote, 1e-9)
}
