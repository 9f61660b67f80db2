package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/foodwheel/internal/apperr"
	"github.com/dukerupert/foodwheel/internal/codegen"
	"github.com/dukerupert/foodwheel/internal/model"
)

// CodesDocument is the document name of the code inventory.
const CodesDocument = "codes"

type CodeStore struct {
	docs *Documents
	gen  *codegen.Generator
	now  func() time.Time
}

func NewCodeStore(docs *Documents, gen *codegen.Generator) *CodeStore {
	return &CodeStore{docs: docs, gen: gen, now: time.Now}
}

// Seed writes an empty inventory if none exists.
func (s *CodeStore) Seed(ctx context.Context) error {
	return s.docs.Seed(ctx, CodesDocument, &model.CodesDocument{Codes: []model.RedemptionCode{}})
}

func normalize(doc *model.CodesDocument) {
	if doc.Codes == nil {
		doc.Codes = []model.RedemptionCode{}
	}
	for i := range doc.Codes {
		if doc.Codes[i].Spins == nil {
			doc.Codes[i].Spins = []model.SpinRecord{}
		}
	}
}

// List returns every code with its spin history, in creation order.
func (s *CodeStore) List(ctx context.Context) ([]model.RedemptionCode, error) {
	var doc model.CodesDocument
	if err := s.docs.Read(ctx, CodesDocument, &doc); err != nil {
		return nil, err
	}
	normalize(&doc)
	return doc.Codes, nil
}

// Get returns the code with the exact token, or nil if there is none.
func (s *CodeStore) Get(ctx context.Context, code string) (*model.RedemptionCode, error) {
	var doc model.CodesDocument
	if err := s.docs.Read(ctx, CodesDocument, &doc); err != nil {
		return nil, err
	}
	normalize(&doc)
	c := doc.Find(code)
	if c == nil {
		return nil, nil
	}
	found := *c
	return &found, nil
}

// Create adds a new code. An empty name becomes "Kod <n>" where n is the new
// inventory size; a non-positive maxSpins becomes 1.
func (s *CodeStore) Create(ctx context.Context, name string, maxSpins int) (*model.RedemptionCode, error) {
	var doc model.CodesDocument
	var created model.RedemptionCode

	err := s.docs.Update(ctx, CodesDocument, &doc, func() error {
		normalize(&doc)

		token := s.gen.Unique(func(candidate string) bool {
			return doc.Find(candidate) != nil
		})

		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Kod %d", len(doc.Codes)+1)
		}
		if maxSpins <= 0 {
			maxSpins = 1
		}

		created = model.RedemptionCode{
			Code:      token,
			Name:      name,
			CreatedAt: s.now().UTC(),
			MaxSpins:  maxSpins,
			UsedCount: 0,
			Spins:     []model.SpinRecord{},
		}
		doc.Codes = append(doc.Codes, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Rename sets the display name of a code.
func (s *CodeStore) Rename(ctx context.Context, code, name string) (*model.RedemptionCode, error) {
	var doc model.CodesDocument
	var updated model.RedemptionCode

	err := s.docs.Update(ctx, CodesDocument, &doc, func() error {
		normalize(&doc)
		c := doc.Find(code)
		if c == nil {
			return apperr.NotFound("code not found")
		}
		c.Name = name
		updated = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the code with the exact token. The inventory is left
// untouched when the code does not exist.
func (s *CodeStore) Delete(ctx context.Context, code string) error {
	var doc model.CodesDocument

	return s.docs.Update(ctx, CodesDocument, &doc, func() error {
		normalize(&doc)
		for i := range doc.Codes {
			if doc.Codes[i].Code == code {
				doc.Codes = append(doc.Codes[:i], doc.Codes[i+1:]...)
				return nil
			}
		}
		return apperr.NotFound("code not found")
	})
}

// Apply runs fn against the code under the inventory lock and persists the
// inventory if fn succeeds. A missing code yields a not-found error without
// calling fn.
func (s *CodeStore) Apply(ctx context.Context, code string, fn func(*model.RedemptionCode) error) (*model.RedemptionCode, error) {
	var doc model.CodesDocument
	var result model.RedemptionCode

	err := s.docs.Update(ctx, CodesDocument, &doc, func() error {
		normalize(&doc)
		c := doc.Find(code)
		if c == nil {
			return apperr.NotFound("invalid code")
		}
		if err := fn(c); err != nil {
			return err
		}
		result = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
