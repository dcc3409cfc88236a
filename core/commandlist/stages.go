package commandlist

import (
	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/domain/channel"
	"github.com/artpar/brushkit/domain/curve"
)

// stageChannels are the ids that drive one sub-operation.
type stageChannels struct {
	strength    string
	radiusScale string
	spacing     string
	useSpacing  string
	projection  string
}

var (
	autosmoothChannels = stageChannels{
		strength:    channel.Autosmooth,
		radiusScale: channel.AutosmoothRadiusScale,
		spacing:     channel.AutosmoothSpacing,
		useSpacing:  channel.AutosmoothUseSpacing,
		projection:  channel.AutosmoothProjection,
	}
	topologyRakeChannels = stageChannels{
		strength:    channel.TopologyRake,
		radiusScale: channel.TopologyRakeRadiusScale,
		spacing:     channel.TopologyRakeSpacing,
		useSpacing:  channel.TopologyRakeUseSpacing,
		projection:  channel.TopologyRakeProjection,
	}
)

// applyStage writes the stage overrides into set, reading driving values from
// resolved. Overridden channels stop inheriting.
func applyStage(stage Stage, set, resolved *channels.Set) error {
	switch stage {
	case StageAutoSmooth:
		if err := applySmoothing(set, resolved, autosmoothChannels); err != nil {
			return err
		}
		inverse, err := boolOf(resolved, channel.AutosmoothInversePressure)
		if err != nil || !inverse {
			return err
		}
		return invertPressure(set)

	case StageTopologyRake:
		return applySmoothing(set, resolved, topologyRakeChannels)

	case StageRemesh:
		if err := scaleRadius(set, resolved, channel.DyntopoRadiusScale); err != nil {
			return err
		}
		spacing, err := floatOf(resolved, channel.DyntopoSpacing)
		if err != nil {
			return err
		}
		return override(set, channel.Spacing, channel.FloatValue(spacing))
	}
	return nil
}

func applySmoothing(set, resolved *channels.Set, ids stageChannels) error {
	strength, err := floatOf(resolved, ids.strength)
	if err != nil {
		return err
	}
	if err := override(set, channel.Strength, channel.FloatValue(strength)); err != nil {
		return err
	}
	if err := scaleRadius(set, resolved, ids.radiusScale); err != nil {
		return err
	}

	useSpacing, err := boolOf(resolved, ids.useSpacing)
	if err != nil {
		return err
	}
	if useSpacing {
		spacing, err := floatOf(resolved, ids.spacing)
		if err != nil {
			return err
		}
		if err := override(set, channel.Spacing, channel.FloatValue(spacing)); err != nil {
			return err
		}
	}

	projection, err := floatOf(resolved, ids.projection)
	if err != nil {
		return err
	}
	return override(set, channel.Projection, channel.FloatValue(projection))
}

func scaleRadius(set, resolved *channels.Set, scaleID string) error {
	radius, err := floatOf(resolved, channel.Radius)
	if err != nil {
		return err
	}
	scale, err := floatOf(resolved, scaleID)
	if err != nil {
		return err
	}
	return override(set, channel.Radius, channel.FloatValue(radius*scale))
}

// invertPressure makes strength fall off as pressure rises.
func invertPressure(set *channels.Set) error {
	ch, err := set.Ensure(channel.Strength)
	if err != nil {
		return err
	}
	m := ch.Mapping(channel.MappingPressure)
	m.Flags = channel.MappingEnabled | channel.MappingInvert
	m.Blend = channel.BlendMultiply
	m.Factor, m.Min, m.Max, m.Premultiply = 1, 0, 1, 1
	ch.SetMappingCurve(channel.MappingPressure, curve.NewPreset(curve.PresetLinear))
	ch.Commit()
	ch.SetInherit(false)
	return nil
}

func override(set *channels.Set, id string, v channel.Value) error {
	ch, err := set.Ensure(id)
	if err != nil {
		return err
	}
	if err := ch.SetValue(v); err != nil {
		return err
	}
	ch.SetInherit(false)
	return nil
}

// floatOf reads a scalar channel, falling back to the registry default when
// the set does not hold it.
func floatOf(s *channels.Set, id string) (float64, error) {
	if ch, err := s.Lookup(id); err == nil {
		return channel.Scalar(ch.Value()), nil
	}
	def, err := channel.Lookup(id)
	if err != nil {
		return 0, err
	}
	return channel.Scalar(def.Default), nil
}

func boolOf(s *channels.Set, id string) (bool, error) {
	v, err := floatOf(s, id)
	return v != 0, err
}
