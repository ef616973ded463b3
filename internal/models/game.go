package models

import (
	"time"
)

// Reference is one price observation for a game at an external source.
type Reference struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
	URL   string  `json:"url"`
}

// Reviewer is one rating observation for a game at an external source.
type Reviewer struct {
	Name   string  `json:"name" validate:"required"`
	URL    string  `json:"url"`
	Note   float64 `json:"note" validate:"gte=0"`
	Number int     `json:"number" validate:"gte=0"`
}

// Review aggregates per-source ratings into an average note.
type Review struct {
	Reviews     map[string]Reviewer `json:"reviews"`
	AverageNote float64             `json:"averageNote"`
}

// ComputeAverageNote recomputes the simple mean of all present ratings.
// Must be called whenever Reviews changes.
func (r *Review) ComputeAverageNote() {
	if len(r.Reviews) == 0 {
		r.AverageNote = 0
		return
	}
	var sum float64
	for _, rev := range r.Reviews {
		sum += rev.Note
	}
	r.AverageNote = sum / float64(len(r.Reviews))
}

// SetReviewer overwrites the entry for rev's source and recomputes the average.
func (r *Review) SetReviewer(rev Reviewer) {
	if r.Reviews == nil {
		r.Reviews = make(map[string]Reviewer)
	}
	r.Reviews[rev.Name] = rev
	r.ComputeAverageNote()
}

// Seller is the summary of the announce's seller on the marketplace.
type Seller struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	NbAnnounces int    `json:"nbAnnounces"`
	IsPro       bool   `json:"isPro"`
}

// Announce is one marketplace announcement as published on okkazeo.
type Announce struct {
	ID                   int64              `json:"id" validate:"gt=0"`
	Name                 string             `json:"name" validate:"required"`
	Image                string             `json:"image,omitempty"`
	Price                float64            `json:"price" validate:"gte=0"`
	URL                  string             `json:"url" validate:"required,url"`
	Extension            string             `json:"extension,omitempty"`
	Shipping             map[string]float64 `json:"shipping,omitempty"`
	Seller               Seller             `json:"seller"`
	Barcode              int64              `json:"barcode,omitempty"` // 0 when unknown
	City                 string             `json:"city,omitempty"`
	LastModificationDate time.Time          `json:"lastModificationDate"`
}

// Game is one fully cross-referenced catalog entry.
type Game struct {
	Announce      Announce             `json:"announce"`
	CanonicalName string               `json:"canonicalName"`
	References    map[string]Reference `json:"references"`
	Review        Review               `json:"review"`
	Deal          Deal                 `json:"deal"`
}

// HasReference reports whether a price reference for source is already present.
func (g *Game) HasReference(source string) bool {
	_, ok := g.References[source]
	return ok
}

// SetReference overwrites the price reference for ref's source.
func (g *Game) SetReference(ref Reference) {
	if g.References == nil {
		g.References = make(map[string]Reference)
	}
	g.References[ref.Name] = ref
}
