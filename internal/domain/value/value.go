// Package value defines the maintenance value and cost models.
//
// A candidate's re-engagement value combines its trust score, its
// connectivity and how long the relationship has been dormant. Whether
// dormancy makes a relationship more urgent or less valuable is a
// modeling choice, so both readings are available as named models.
package value

import (
	"errors"
	"fmt"
	"math"
)

// Named dormancy models.
const (
	// ModelLogUrgency grows value logarithmically with dormancy: the
	// longer a relationship has lapsed, the more urgent re-engagement.
	ModelLogUrgency = "log_urgency"
	// ModelExpDecay erodes value exponentially with dormancy: a lapsed
	// relationship is worth less the longer it has been cold.
	ModelExpDecay = "exp_decay"
)

// Named cost models.
const (
	// CostUniform charges the same effort for every candidate.
	CostUniform = "uniform"
	// CostDepth charges more for better-connected candidates; deeper
	// relationships take longer to re-engage.
	CostDepth = "depth"
)

// ErrUnknownModel indicates an unrecognized model name.
var ErrUnknownModel = errors.New("unknown model")

// Model computes the re-engagement value of a candidate.
type Model interface {
	Value(score float64, degree int, dormantDays float64) float64
}

// CostModel computes the re-engagement effort, in minutes.
type CostModel interface {
	Cost(degree int) float64
}

// ModelFor returns the named dormancy model. halfLifeDays only applies
// to the exponential decay model.
func ModelFor(name string, halfLifeDays float64) (Model, error) {
	switch name {
	case ModelLogUrgency:
		return logUrgency{}, nil
	case ModelExpDecay:
		if halfLifeDays <= 0 {
			return nil, fmt.Errorf("%w: %s requires a positive half life", ErrUnknownModel, name)
		}
		return expDecay{halfLife: halfLifeDays}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

// CostFor returns the named cost model with the given base minutes.
func CostFor(name string, baseMinutes float64) (CostModel, error) {
	if baseMinutes <= 0 {
		return nil, fmt.Errorf("%w: base cost must be positive", ErrUnknownModel)
	}
	switch name {
	case CostUniform:
		return uniformCost{minutes: baseMinutes}, nil
	case CostDepth:
		return depthCost{base: baseMinutes}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

// networkValue weights a node's trust score by its connectivity. The
// square root keeps very high degree nodes from dominating.
func networkValue(score float64, degree int) float64 {
	return score * math.Sqrt(float64(degree))
}

type logUrgency struct{}

func (logUrgency) Value(score float64, degree int, dormantDays float64) float64 {
	if dormantDays < 0 {
		dormantDays = 0
	}
	return math.Log(dormantDays+1) * networkValue(score, degree)
}

type expDecay struct {
	halfLife float64
}

func (m expDecay) Value(score float64, degree int, dormantDays float64) float64 {
	if dormantDays < 0 {
		dormantDays = 0
	}
	return networkValue(score, degree) * math.Exp(-dormantDays/m.halfLife)
}

type uniformCost struct {
	minutes float64
}

func (c uniformCost) Cost(int) float64 {
	return c.minutes
}

type depthCost struct {
	base float64
}

func (c depthCost) Cost(degree int) float64 {
	if degree < 1 {
		degree = 1
	}
	return c.base * math.Sqrt(float64(degree))
}
