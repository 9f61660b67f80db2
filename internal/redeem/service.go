// Package redeem validates redemption codes and spins the wheel for them.
package redeem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/foodwheel/internal/apperr"
	"github.com/dukerupert/foodwheel/internal/model"
)

const (
	msgValid       = "Code is valid"
	msgInvalid     = "Invalid code"
	msgAlreadyUsed = "This code has already been used"
	unknownAgent   = "Unknown"
)

// PrizeLister supplies the current catalog in stored order.
type PrizeLister interface {
	List(ctx context.Context) ([]model.Prize, error)
}

// CodeRepository looks up codes and mutates one code under the inventory
// lock.
type CodeRepository interface {
	Get(ctx context.Context, code string) (*model.RedemptionCode, error)
	Apply(ctx context.Context, code string, fn func(*model.RedemptionCode) error) (*model.RedemptionCode, error)
}

// Picker chooses one prize by weight.
type Picker interface {
	Pick(prizes []model.Prize) (model.Prize, error)
}

// Caller identifies who requested a spin.
type Caller struct {
	IP        string
	UserAgent string
}

// Result is the outcome of a successful spin.
type Result struct {
	Winner  model.Prize
	Code    model.RedemptionCode
	Message string
}

type Service struct {
	prizes PrizeLister
	codes  CodeRepository
	picker Picker
	now    func() time.Time
}

func NewService(prizes PrizeLister, codes CodeRepository, picker Picker) *Service {
	return &Service{prizes: prizes, codes: codes, picker: picker, now: time.Now}
}

// Validate reports whether code can still spin. It never writes and never
// reads the prize catalog.
func (s *Service) Validate(ctx context.Context, code string) (model.Validation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.Validation{Valid: false, Message: msgInvalid}, nil
	}
	c, err := s.codes.Get(ctx, code)
	if err != nil {
		return model.Validation{}, err
	}
	if c == nil {
		return model.Validation{Valid: false, Message: msgInvalid}, nil
	}
	if c.Exhausted() {
		won, _ := c.FirstWin()
		return model.Validation{Valid: false, Message: msgAlreadyUsed, WonPrize: won}, nil
	}
	return model.Validation{Valid: true, Message: msgValid}, nil
}

// Spin draws a prize for code and appends the result to its history.
// The check, the draw and the write all happen under the inventory lock, so
// two overlapping spins on a single-use code cannot both succeed.
func (s *Service) Spin(ctx context.Context, code string, caller Caller) (*Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation("code is required")
	}

	var winner model.Prize
	updated, err := s.codes.Apply(ctx, code, func(c *model.RedemptionCode) error {
		if c.Exhausted() {
			return apperr.Conflict(msgAlreadyUsed)
		}

		prizes, err := s.prizes.List(ctx)
		if err != nil {
			return err
		}
		winner, err = s.picker.Pick(prizes)
		if err != nil {
			return err
		}

		ua := caller.UserAgent
		if ua == "" {
			ua = unknownAgent
		}
		c.Spins = append(c.Spins, model.SpinRecord{
			Timestamp: s.now().UTC(),
			WonItem:   winner.Name,
			IPAddress: caller.IP,
			UserAgent: ua,
		})
		c.UsedCount = len(c.Spins)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Winner:  winner,
		Code:    *updated,
		Message: fmt.Sprintf("Congratulations! You won %s!", winner.Name),
	}, nil
}
