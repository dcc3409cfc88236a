package channels

import (
	"math"

	"github.com/artpar/brushkit/domain/channel"
)

// divideEpsilon replaces near-zero divisors in BlendDivide.
const divideEpsilon = 1e-4

// Evaluate returns the instantaneous value of ch for the given signals.
//
// The accumulator starts at 1. Each enabled mapping, in slot order, reads
// its signal, scales it by Premultiply, optionally inverts it, runs it
// through the slot curve, remaps it into [Min, Max] and blends it into the
// accumulator weighted by Factor. Float channels return base*acc, Int
// channels the rounded and clamped product, Curve channels acc itself.
// Channels without mappings, or with every slot disabled, return the base
// value unchanged, as does an accumulator that is not finite.
//
// Evaluate does not modify ch and does not allocate for cached curves.
func Evaluate(ch *Channel, sig channel.InputSignals) channel.Value {
	if !ch.Mappable() {
		return ch.value
	}
	acc, active := accumulate(ch, sig)
	if !active || math.IsNaN(acc) || math.IsInf(acc, 0) {
		return ch.value
	}

	switch ch.Def.Kind {
	case channel.KindCurve:
		return channel.FloatValue(acc)
	case channel.KindInt:
		base, _ := ch.value.(channel.IntValue)
		return ch.Def.Sanitize(channel.IntValue(math.Round(float64(base) * acc)))
	}
	base, _ := ch.value.(channel.FloatValue)
	return channel.FloatValue(float64(base) * acc)
}

// EvaluateFloat is Evaluate for scalar channels.
func EvaluateFloat(ch *Channel, sig channel.InputSignals) float64 {
	return channel.Scalar(Evaluate(ch, sig))
}

// EvaluateCurve evaluates the channel curve of a Curve-kind channel at x,
// scaled by the mapped channel value.
func EvaluateCurve(ch *Channel, sig channel.InputSignals, x float64) float64 {
	return ch.curve.eval(x) * EvaluateFloat(ch, sig)
}

func accumulate(ch *Channel, sig channel.InputSignals) (float64, bool) {
	acc := 1.0
	active := false
	for i := range ch.Mappings {
		m := &ch.Mappings[i]
		if !m.Enabled() {
			continue
		}
		active = true

		s := clampUnit(sig.At(channel.MappingType(i)) * m.Premultiply)
		if m.Inverted() {
			s = 1 - s
		}
		f := m.curve.eval(s)
		f = m.Min + (m.Max-m.Min)*f

		next := blend(m.Blend, acc, f)
		acc += (next - acc) * m.Factor
	}
	return acc, active
}

func blend(mode channel.BlendMode, acc, f float64) float64 {
	switch mode {
	case channel.BlendReplace:
		return f
	case channel.BlendDivide:
		if math.Abs(f) < divideEpsilon {
			f = math.Copysign(divideEpsilon, f)
		}
		return acc / f
	case channel.BlendAdd:
		return acc + f
	case channel.BlendSubtract:
		return acc - f
	case channel.BlendAbsDiff:
		return math.Abs(acc - f)
	}
	return acc * f
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EvaluateFloat evaluates channel id of the set.
func (s *Set) EvaluateFloat(id string, sig channel.InputSignals) (float64, error) {
	ch, err := s.Lookup(id)
	if err != nil {
		return 0, err
	}
	return EvaluateFloat(ch, sig), nil
}
