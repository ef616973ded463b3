package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"annotation and suffix", "Catan (5th Edition) - Extension", "Catan"},
		{"no delimiter", "7 Wonders", "7 Wonders"},
		{"unbalanced parenthesis", "Ticket to Ride (USA - base game", "Ticket to Ride"},
		{"multiple delimiters", "Zombicide - Saison 2 - Extension", "Zombicide - Saison 2"},
		{"annotation mid-title", "Dixit (FR) Odyssey - Jeu de base", "Dixit  Odyssey"},
		{"closing without opening", "Catan) - Jeu", "Catan"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalName(tt.title))
		})
	}
}

func TestCanonicalName_Deterministic(t *testing.T) {
	const title = "Les Aventuriers du Rail (Europe) - Jeu de base"
	first := CanonicalName(title)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, CanonicalName(title))
	}
}

func TestSameGame(t *testing.T) {
	assert.True(t, SameGame("CATAN", "Catan"))
	assert.True(t, SameGame("7 Wonders", "7 wonders"))
	assert.True(t, SameGame("Les Aventuriers du Rail", "les aventuriers du rail"))
	assert.True(t, SameGame("Terraforming  Mars", "Terraforming Mars"))

	assert.False(t, SameGame("Catan", "Carcassonne"))
	assert.False(t, SameGame("7 Wonders", "7 Wonders Duel Pantheon Edition Collector"))
	assert.False(t, SameGame("", "Catan"))
	assert.False(t, SameGame("", ""))
}

func TestSimilarity_Bounds(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("Azul", "AZUL"), 1e-9)
	assert.Zero(t, Similarity("Azul", ""))

	sim := Similarity("Splendor", "Splendor Marvel")
	assert.Greater(t, sim, 0.0)
	assert.Less(t, sim, 1.0)
}
