package store

import (
	"context"
	"time"

	"github.com/dukerupert/foodwheel/internal/model"
	"github.com/google/uuid"
)

// PrizesDocument is the document name of the prize catalog.
const PrizesDocument = "foods"

// DefaultPrizes is the catalog written on first run.
func DefaultPrizes() []model.Prize {
	return []model.Prize{
		{ID: "food_1", Name: "Frambuazlı Biscolata", Weight: 12, Color: "#FF6B9D"},
		{ID: "food_2", Name: "Haribo", Weight: 12, Color: "#C44569"},
		{ID: "food_3", Name: "Brownie Intense", Weight: 17, Color: "#F8B195"},
		{ID: "food_4", Name: "Eti Canga", Weight: 17, Color: "#F67280"},
		{ID: "food_5", Name: "Eti Wanted Hindistan Cevizli", Weight: 21, Color: "#355C7D"},
		{ID: "food_6", Name: "Ülker Piko", Weight: 21, Color: "#6C5B7B"},
	}
}

type PrizeStore struct {
	docs *Documents
	now  func() time.Time
}

func NewPrizeStore(docs *Documents) *PrizeStore {
	return &PrizeStore{docs: docs, now: time.Now}
}

// Seed writes the default catalog if none exists.
func (s *PrizeStore) Seed(ctx context.Context) error {
	prizes := DefaultPrizes()
	return s.docs.Seed(ctx, PrizesDocument, &model.PrizeDocument{
		Foods:       prizes,
		TotalWeight: model.TotalWeight(prizes),
		LastUpdated: s.now().UTC(),
	})
}

// Get returns the full catalog document.
func (s *PrizeStore) Get(ctx context.Context) (*model.PrizeDocument, error) {
	var doc model.PrizeDocument
	if err := s.docs.Read(ctx, PrizesDocument, &doc); err != nil {
		return nil, err
	}
	if doc.Foods == nil {
		doc.Foods = []model.Prize{}
	}
	return &doc, nil
}

// List returns the prizes in stored order.
func (s *PrizeStore) List(ctx context.Context) ([]model.Prize, error) {
	doc, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Foods, nil
}

// Replace stores prizes as the whole catalog, recomputing the total weight
// and stamping the update time. Prizes without an ID are given one. The
// total is not required to be 100.
func (s *PrizeStore) Replace(ctx context.Context, prizes []model.Prize) (*model.PrizeDocument, error) {
	foods := make([]model.Prize, len(prizes))
	copy(foods, prizes)
	for i := range foods {
		if foods[i].ID == "" {
			foods[i].ID = "food_" + uuid.NewString()
		}
	}

	doc := &model.PrizeDocument{
		Foods:       foods,
		TotalWeight: model.TotalWeight(foods),
		LastUpdated: s.now().UTC(),
	}
	if err := s.docs.Write(ctx, PrizesDocument, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
