package validator

import (
	"testing"
	"time"

	"github.com/ThisIsAreku/Aubonmeeple/internal/models"
)

func validAnnounce() models.Announce {
	return models.Announce{
		ID:                   123456,
		Name:                 "Catan (5th Edition) - Jeu de base",
		Price:                25.50,
		URL:                  "https://www.okkazeo.com/annonces/view/123456",
		LastModificationDate: time.Now(),
	}
}

func TestValidateStruct_ValidAnnounce(t *testing.T) {
	v := New()
	a := validAnnounce()
	if err := v.ValidateStruct(a); err != nil {
		t.Errorf("Expected valid announce, got %v", err)
	}
}

func TestValidateStruct_Rejections(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		mutate func(*models.Announce)
	}{
		{"zero id", func(a *models.Announce) { a.ID = 0 }},
		{"negative id", func(a *models.Announce) { a.ID = -4 }},
		{"empty name", func(a *models.Announce) { a.Name = "" }},
		{"negative price", func(a *models.Announce) { a.Price = -1 }},
		{"missing url", func(a *models.Announce) { a.URL = "" }},
		{"malformed url", func(a *models.Announce) { a.URL = "not a url" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAnnounce()
			tt.mutate(&a)
			if err := v.ValidateStruct(a); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestValidateStruct_NegativeReferenceRejected(t *testing.T) {
	v := New()

	ref := models.Reference{Name: "philibert", Price: -3.50}
	if err := v.ValidateStruct(ref); err == nil {
		t.Error("Expected validation error for negative reference price")
	}

	rev := models.Reviewer{Name: "trictrac", Note: -1}
	if err := v.ValidateStruct(rev); err == nil {
		t.Error("Expected validation error for negative rating")
	}
}
