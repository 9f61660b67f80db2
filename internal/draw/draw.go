// Package draw picks a prize with probability proportional to its weight.
package draw

import (
	"math/rand/v2"

	"github.com/dukerupert/foodwheel/internal/apperr"
	"github.com/dukerupert/foodwheel/internal/model"
)

// Source yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Drawer performs weighted draws from a Source.
type Drawer struct {
	src Source
}

// New returns a Drawer backed by src, or by the math/rand/v2 global
// generator when src is nil.
func New(src Source) *Drawer {
	if src == nil {
		src = globalSource{}
	}
	return &Drawer{src: src}
}

// Pick selects one prize. A value r is drawn in [0, total) and each prize's
// weight is subtracted in list order; the first prize that brings r to zero
// or below wins. The last prize wins if the loop runs out.
func (d *Drawer) Pick(prizes []model.Prize) (model.Prize, error) {
	if len(prizes) == 0 {
		return model.Prize{}, apperr.Config("prize catalog is empty")
	}
	total := 0
	for _, p := range prizes {
		if p.Weight < 0 {
			return model.Prize{}, apperr.Config("prize weights must not be negative")
		}
		total += p.Weight
	}
	if total == 0 {
		return model.Prize{}, apperr.Config("prize weights sum to zero")
	}

	return Select(prizes, d.src.Float64()*float64(total)), nil
}

// Select runs the subtraction walk for a fixed r. Callers must have checked
// that prizes is non-empty.
func Select(prizes []model.Prize, r float64) model.Prize {
	for _, p := range prizes {
		r -= float64(p.Weight)
		if r <= 0 {
			return p
		}
	}
	return prizes[len(prizes)-1]
}
