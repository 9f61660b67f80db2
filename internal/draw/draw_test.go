package draw

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/dukerupert/foodwheel/internal/apperr"
	"github.com/dukerupert/foodwheel/internal/model"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func samplePrizes() []model.Prize {
	return []model.Prize{
		{ID: "a", Name: "A", Weight: 20},
		{ID: "b", Name: "B", Weight: 30},
		{ID: "c", Name: "C", Weight: 50},
	}
}

func TestSelectTrace(t *testing.T) {
	prizes := samplePrizes()

	cases := []struct {
		r    float64
		want string
	}{
		{0, "A"},
		{19.9, "A"},
		{20, "A"}, // 20 - 20 = 0 stops on the first prize
		{20.1, "B"},
		{50, "B"},
		{50.5, "C"},
		{99.99, "C"},
	}
	for _, c := range cases {
		if got := Select(prizes, c.r); got.Name != c.want {
			t.Errorf("Select(r=%v) = %q, want %q", c.r, got.Name, c.want)
		}
	}
}

func TestSelectFallbackToLast(t *testing.T) {
	prizes := samplePrizes()

	if got := Select(prizes, 1000); got.Name != "C" {
		t.Errorf("Select past total = %q, want %q", got.Name, "C")
	}
}

func TestPickUsesSource(t *testing.T) {
	d := New(fixedSource(0.3)) // r = 30 -> A leaves 10, B leaves -20

	got, err := d.Pick(samplePrizes())
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if got.Name != "B" {
		t.Errorf("winner = %q, want %q", got.Name, "B")
	}
}

func TestPickSinglePrize(t *testing.T) {
	d := New(fixedSource(0.999))
	got, err := d.Pick([]model.Prize{{ID: "only", Name: "Only", Weight: 100}})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if got.ID != "only" {
		t.Errorf("winner = %q, want %q", got.ID, "only")
	}
}

func TestPickRejectsEmptyCatalog(t *testing.T) {
	d := New(fixedSource(0.5))

	_, err := d.Pick(nil)
	if !apperr.Is(err, apperr.KindConfig) {
		t.Errorf("empty catalog error kind = %v, want config", apperr.KindOf(err))
	}
}

func TestPickRejectsZeroWeights(t *testing.T) {
	d := New(fixedSource(0.5))

	_, err := d.Pick([]model.Prize{{Name: "A"}, {Name: "B"}})
	if !apperr.Is(err, apperr.KindConfig) {
		t.Errorf("zero weights error kind = %v, want config", apperr.KindOf(err))
	}
}

func TestPickDistribution(t *testing.T) {
	d := New(rand.New(rand.NewPCG(1, 2)))
	prizes := samplePrizes()

	const n = 200000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		p, err := d.Pick(prizes)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		counts[p.Name]++
	}

	total := float64(model.TotalWeight(prizes))
	for _, p := range prizes {
		want := float64(p.Weight) / total
		got := float64(counts[p.Name]) / n
		if math.Abs(got-want) > 0.01 {
			t.Errorf("frequency of %s = %.4f, want %.4f", p.Name, got, want)
		}
	}
}
