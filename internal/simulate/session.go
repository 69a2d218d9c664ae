package simulate

import (
	"errors"
	"fmt"
	"math"

	"lpScope/internal/model"
)

var (
	ErrDuplicateRange = errors.New("range id already exists")
	ErrUnknownRange   = errors.New("range not found")
)

// Market holds the token USD prices a session is evaluated against.
type Market struct {
	CurrentPrices   [2]float64 `json:"current_prices"`
	SimulatedPrices [2]float64 `json:"simulated_prices"`
}

// Switch returns the market seen from the other token.
func (m Market) Switch() Market {
	return Market{
		CurrentPrices:   [2]float64{m.CurrentPrices[1], m.CurrentPrices[0]},
		SimulatedPrices: [2]float64{m.SimulatedPrices[1], m.SimulatedPrices[0]},
	}
}

// Evaluation is the outcome of one range in a session.
type Evaluation struct {
	Range                  model.Range            `json:"range"`
	EffectiveInvestmentUSD float64                `json:"effective_investment_usd"`
	CapitalEfficiency      float64                `json:"capital_efficiency"`
	Result                 model.SimulationResult `json:"result"`
	Err                    error                  `json:"-"`
}

// Session is an immutable set of ranges. Every mutation returns a new
// session and leaves the receiver untouched.
type Session struct {
	ranges []model.Range
}

// NewSession returns a session holding ranges, rejecting duplicate ids.
func NewSession(ranges ...model.Range) (Session, error) {
	var s Session
	for _, r := range ranges {
		var err error
		if s, err = s.Add(r); err != nil {
			return Session{}, err
		}
	}
	return s, nil
}

// Ranges returns a copy of the session's ranges in insertion order.
func (s Session) Ranges() []model.Range {
	return append([]model.Range(nil), s.ranges...)
}

// Len reports how many ranges the session holds.
func (s Session) Len() int {
	return len(s.ranges)
}

func (s Session) index(id string) int {
	for i, r := range s.ranges {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Add appends r. Ids must be non-empty and unique within the session.
func (s Session) Add(r model.Range) (Session, error) {
	if r.ID == "" {
		return s, errors.New("range id is required")
	}
	if s.index(r.ID) >= 0 {
		return s, fmt.Errorf("%w: %s", ErrDuplicateRange, r.ID)
	}
	next := make([]model.Range, len(s.ranges), len(s.ranges)+1)
	copy(next, s.ranges)
	return Session{ranges: append(next, r)}, nil
}

// Remove drops the range with id. Unknown ids are ignored.
func (s Session) Remove(id string) Session {
	i := s.index(id)
	if i < 0 {
		return s
	}
	next := make([]model.Range, 0, len(s.ranges)-1)
	next = append(next, s.ranges[:i]...)
	next = append(next, s.ranges[i+1:]...)
	return Session{ranges: next}
}

// Update replaces the range sharing r's id and fails with ErrUnknownRange
// when there is none.
func (s Session) Update(r model.Range) (Session, error) {
	i := s.index(r.ID)
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrUnknownRange, r.ID)
	}
	next := s.Ranges()
	next[i] = r
	return Session{ranges: next}, nil
}

// Switch re-expresses every range against the other token.
func (s Session) Switch() Session {
	next := make([]model.Range, len(s.ranges))
	for i, r := range s.ranges {
		next[i] = SwitchRange(r)
	}
	return Session{ranges: next}
}

// Evaluate simulates each range with its investment scaled by the range's
// concentration. Failures are recorded per range.
func (s Session) Evaluate(m Market) []Evaluation {
	out := make([]Evaluation, 0, len(s.ranges))
	for _, r := range s.ranges {
		out = append(out, evaluate(r, m))
	}
	return out
}

func evaluate(r model.Range, m Market) Evaluation {
	ev := Evaluation{Range: r, CapitalEfficiency: 1, EffectiveInvestmentUSD: r.InvestmentUSD}
	in := Input{
		CurrentPrices:   m.CurrentPrices,
		SimulatedPrices: m.SimulatedPrices,
		PriceMin:        r.PriceMin,
		PriceMax:        r.PriceMax,
		Infinite:        r.InfiniteRange,
	}
	if !r.InfiniteRange {
		if !validPrices(m.CurrentPrices) {
			ev.Err = ErrInvalidPrice
			return ev
		}
		coef, err := InvestmentIncreaseCoefficient(m.CurrentPrices[0]/m.CurrentPrices[1], r.PriceMin, r.PriceMax)
		if err != nil {
			ev.Err = err
			return ev
		}
		if math.IsInf(coef, 0) || math.IsNaN(coef) {
			ev.Err = fmt.Errorf("%w: current price on the range boundary", ErrInvalidRange)
			return ev
		}
		ev.EffectiveInvestmentUSD = r.InvestmentUSD * coef
		ev.CapitalEfficiency = CapitalEfficiency(r.PriceMin, r.PriceMax)
	}
	in.InvestmentUSD = ev.EffectiveInvestmentUSD
	ev.Result, ev.Err = Simulate(in)
	return ev
}
