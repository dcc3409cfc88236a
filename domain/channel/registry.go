package channel

import (
	"fmt"
	"sort"

	"github.com/artpar/brushkit/domain/curve"
)

// Known channel identifiers.
const (
	Radius             = "radius"
	Strength           = "strength"
	Spacing            = "spacing"
	Hardness           = "hardness"
	TipRoundness       = "tip_roundness"
	TipScaleX          = "tip_scale_x"
	NormalRadiusFactor = "normal_radius_factor"
	AreaRadiusFactor   = "area_radius_factor"
	PlaneOffset        = "plane_offset"
	PlaneTrim          = "plane_trim"
	UsePlaneTrim       = "use_plane_trim"
	CreasePinchFactor  = "crease_pinch_factor"
	Direction          = "direction"
	Accumulate         = "accumulate"
	FalloffCurve       = "falloff_curve"
	Color              = "color"
	SecondaryColor     = "secondary_color"
	Gravity            = "gravity"
	Flow               = "flow"
	WetMix             = "wet_mix"
	Density            = "density"
	Rate               = "rate"
	Jitter             = "jitter"
	SmoothStrokeRadius = "smooth_stroke_radius"
	SmoothStrokeFactor = "smooth_stroke_factor"
	UseSmoothStroke    = "use_smooth_stroke"
	Projection         = "projection"
	TiltStrengthFactor = "tilt_strength_factor"
	DashRatio          = "dash_ratio"
	ConcaveMaskFactor  = "concave_mask_factor"
	Automasking        = "automasking"

	Autosmooth                = "autosmooth"
	AutosmoothRadiusScale     = "autosmooth_radius_scale"
	AutosmoothSpacing         = "autosmooth_spacing"
	AutosmoothUseSpacing      = "autosmooth_use_spacing"
	AutosmoothProjection      = "autosmooth_projection"
	AutosmoothInversePressure = "autosmooth_inverse_pressure"

	TopologyRake            = "topology_rake"
	TopologyRakeRadiusScale = "topology_rake_radius_scale"
	TopologyRakeSpacing     = "topology_rake_spacing"
	TopologyRakeUseSpacing  = "topology_rake_use_spacing"
	TopologyRakeProjection  = "topology_rake_projection"

	DyntopoDisabled    = "dyntopo_disabled"
	DyntopoMode        = "dyntopo_mode"
	DyntopoDetailSize  = "dyntopo_detail_size"
	DyntopoRadiusScale = "dyntopo_radius_scale"
	DyntopoSpacing     = "dyntopo_spacing"
)

// Dyntopo mode bits.
const (
	DyntopoSubdivide     int64 = 1 << 0
	DyntopoCollapse      int64 = 1 << 1
	DyntopoCleanup       int64 = 1 << 2
	DyntopoLocalCollapse int64 = 1 << 3
	DyntopoLocalSubdiv   int64 = 1 << 4
)

// Automasking bits.
const (
	AutomaskTopology         int64 = 1 << 0
	AutomaskFaceSets         int64 = 1 << 1
	AutomaskBoundaryEdges    int64 = 1 << 2
	AutomaskBoundaryFaceSets int64 = 1 << 3
	AutomaskCavity           int64 = 1 << 4
	AutomaskConcave          int64 = 1 << 5
)

// Direction enum values.
const (
	DirectionAdd      int64 = 0
	DirectionSubtract int64 = 1
)

const showAll = FlagShowInWorkspace | FlagShowInHeader | FlagShowInContextMenu

// pressureMapped returns mapping defaults with the pressure slot enabled.
func pressureMapped() [NumMappings]MappingDef {
	var m [NumMappings]MappingDef
	m[MappingPressure] = MappingDef{Enabled: true, Curve: curve.PresetLinear, Blend: BlendMultiply, Max: 1, Factor: 1}
	return m
}

// table is the static schema. It is indexed once in init and never mutated.
var table = []TypeDef{
	// Basic
	{ID: Radius, Name: "Radius", Category: "Basic", Kind: KindFloat, Subtype: SubtypePixel,
		Min: 0.5, Max: 500, SoftMin: 0.5, SoftMax: 300, Default: FloatValue(50), Flags: showAll},
	{ID: Strength, Name: "Strength", Category: "Basic", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 10, SoftMin: 0, SoftMax: 1, Default: FloatValue(0.5), Mappings: pressureMapped(), Flags: showAll},
	{ID: Spacing, Name: "Spacing", Category: "Stroke", Kind: KindFloat, Subtype: SubtypePercentage,
		Min: 1, Max: 1000, SoftMin: 1, SoftMax: 500, Default: FloatValue(10), Flags: FlagShowInWorkspace},
	{ID: Hardness, Name: "Hardness", Category: "Basic", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0)},
	{ID: TipRoundness, Name: "Tip Roundness", Category: "Basic", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(1)},
	{ID: TipScaleX, Name: "Tip Scale X", Category: "Basic", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0.0001, Max: 1, Default: FloatValue(1)},
	{ID: NormalRadiusFactor, Name: "Normal Radius", Category: "Advanced", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 2, Default: FloatValue(0.5)},
	{ID: AreaRadiusFactor, Name: "Area Radius", Category: "Advanced", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 2, Default: FloatValue(0.5)},
	{ID: PlaneOffset, Name: "Plane Offset", Category: "Advanced", Kind: KindFloat, Subtype: SubtypeDistance,
		Min: -2, Max: 2, SoftMin: -0.5, SoftMax: 0.5, Default: FloatValue(0)},
	{ID: PlaneTrim, Name: "Plane Trim", Category: "Advanced", Kind: KindFloat, Subtype: SubtypeDistance,
		Min: 0, Max: 1, Default: FloatValue(0.5)},
	{ID: UsePlaneTrim, Name: "Use Plane Trim", Category: "Advanced", Kind: KindBool, Default: IntValue(0)},
	{ID: CreasePinchFactor, Name: "Crease Pinch", Category: "Advanced", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0.5)},
	{ID: Direction, Name: "Direction", Category: "Basic", Kind: KindEnum, Default: IntValue(DirectionAdd),
		EnumItems: []EnumItem{
			{Value: DirectionAdd, ID: "add", Name: "Add"},
			{Value: DirectionSubtract, ID: "subtract", Name: "Subtract"},
		}, Flags: FlagShowInHeader},
	{ID: Accumulate, Name: "Accumulate", Category: "Stroke", Kind: KindBool, Default: IntValue(0)},
	{ID: FalloffCurve, Name: "Falloff", Category: "Basic", Kind: KindCurve, Min: 0, Max: 1,
		Default: FloatValue(1), CurvePreset: curve.PresetSmooth},

	// Color
	{ID: Color, Name: "Color", Category: "Color", Kind: KindVec4, Subtype: SubtypeColor,
		Min: 0, Max: 1, Default: Vec4Value{1, 1, 1, 1}, Flags: FlagShowInHeader},
	{ID: SecondaryColor, Name: "Secondary Color", Category: "Color", Kind: KindVec4, Subtype: SubtypeColor,
		Min: 0, Max: 1, Default: Vec4Value{0, 0, 0, 1}},
	{ID: Flow, Name: "Flow", Category: "Color", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(1), Mappings: pressureMapped()},
	{ID: WetMix, Name: "Wet Mix", Category: "Color", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0)},
	{ID: Density, Name: "Density", Category: "Color", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(1)},

	// Stroke
	{ID: Gravity, Name: "Gravity", Category: "Stroke", Kind: KindVec3, Subtype: SubtypeDistance,
		Min: -1, Max: 1, Default: Vec3Value{0, 0, -1}},
	{ID: Rate, Name: "Rate", Category: "Stroke", Kind: KindFloat,
		Min: 0.0001, Max: 10000, SoftMin: 0.01, SoftMax: 1, Default: FloatValue(0.1)},
	{ID: Jitter, Name: "Jitter", Category: "Stroke", Kind: KindFloat,
		Min: 0, Max: 1000, SoftMin: 0, SoftMax: 2, Default: FloatValue(0)},
	{ID: SmoothStrokeRadius, Name: "Smooth Stroke Radius", Category: "Stroke", Kind: KindInt, Subtype: SubtypePixel,
		Min: 10, Max: 200, Default: IntValue(75)},
	{ID: SmoothStrokeFactor, Name: "Smooth Stroke Factor", Category: "Stroke", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0.5, Max: 0.99, Default: FloatValue(0.9)},
	{ID: UseSmoothStroke, Name: "Smooth Stroke", Category: "Stroke", Kind: KindBool, Default: IntValue(0)},
	{ID: Projection, Name: "Projection", Category: "Smoothing", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0)},
	{ID: TiltStrengthFactor, Name: "Tilt Strength", Category: "Advanced", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: -1, Max: 1, Default: FloatValue(0)},
	{ID: DashRatio, Name: "Dash Ratio", Category: "Stroke", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(1)},
	{ID: ConcaveMaskFactor, Name: "Concave Mask Factor", Category: "Automasking", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0.5)},
	{ID: Automasking, Name: "Automasking", Category: "Automasking", Kind: KindBitmask, Default: IntValue(0),
		EnumItems: []EnumItem{
			{Value: AutomaskTopology, ID: "topology", Name: "Topology"},
			{Value: AutomaskFaceSets, ID: "face_sets", Name: "Face Sets"},
			{Value: AutomaskBoundaryEdges, ID: "boundary_edges", Name: "Mesh Boundary"},
			{Value: AutomaskBoundaryFaceSets, ID: "boundary_face_sets", Name: "Face Sets Boundary"},
			{Value: AutomaskCavity, ID: "cavity", Name: "Cavity"},
			{Value: AutomaskConcave, ID: "concave", Name: "Concave"},
		}, Flags: FlagInheritIfUnset},

	// Smoothing
	{ID: Autosmooth, Name: "Auto-Smooth", Category: "Smoothing", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0), Flags: FlagShowInWorkspace},
	{ID: AutosmoothRadiusScale, Name: "Auto-Smooth Radius Scale", Category: "Smoothing", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0.0001, Max: 25, SoftMin: 0.1, SoftMax: 4, Default: FloatValue(1)},
	{ID: AutosmoothSpacing, Name: "Auto-Smooth Spacing", Category: "Smoothing", Kind: KindFloat, Subtype: SubtypePercentage,
		Min: 1, Max: 1000, SoftMin: 1, SoftMax: 500, Default: FloatValue(12)},
	{ID: AutosmoothUseSpacing, Name: "Auto-Smooth Use Spacing", Category: "Smoothing", Kind: KindBool, Default: IntValue(0)},
	{ID: AutosmoothProjection, Name: "Auto-Smooth Projection", Category: "Smoothing", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0)},
	{ID: AutosmoothInversePressure, Name: "Auto-Smooth Inverse Pressure", Category: "Smoothing", Kind: KindBool, Default: IntValue(0)},

	// Topology rake
	{ID: TopologyRake, Name: "Topology Rake", Category: "Dyntopo", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0)},
	{ID: TopologyRakeRadiusScale, Name: "Topology Rake Radius Scale", Category: "Dyntopo", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0.0001, Max: 25, SoftMin: 0.1, SoftMax: 4, Default: FloatValue(1)},
	{ID: TopologyRakeSpacing, Name: "Topology Rake Spacing", Category: "Dyntopo", Kind: KindFloat, Subtype: SubtypePercentage,
		Min: 1, Max: 1000, SoftMin: 1, SoftMax: 500, Default: FloatValue(13)},
	{ID: TopologyRakeUseSpacing, Name: "Topology Rake Use Spacing", Category: "Dyntopo", Kind: KindBool, Default: IntValue(0)},
	{ID: TopologyRakeProjection, Name: "Topology Rake Projection", Category: "Dyntopo", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0, Max: 1, Default: FloatValue(0.975)},

	// Dyntopo
	{ID: DyntopoDisabled, Name: "Disable Dyntopo", Category: "Dyntopo", Kind: KindBool, Default: IntValue(0)},
	{ID: DyntopoMode, Name: "Dyntopo Mode", Category: "Dyntopo", Kind: KindBitmask,
		Default: IntValue(DyntopoSubdivide | DyntopoCollapse | DyntopoCleanup),
		EnumItems: []EnumItem{
			{Value: DyntopoSubdivide, ID: "subdivide", Name: "Subdivide"},
			{Value: DyntopoCollapse, ID: "collapse", Name: "Collapse"},
			{Value: DyntopoCleanup, ID: "cleanup", Name: "Cleanup"},
			{Value: DyntopoLocalCollapse, ID: "local_collapse", Name: "Local Collapse"},
			{Value: DyntopoLocalSubdiv, ID: "local_subdivide", Name: "Local Subdivide"},
		}, Flags: FlagInheritIfUnset},
	{ID: DyntopoDetailSize, Name: "Detail Size", Category: "Dyntopo", Kind: KindFloat, Subtype: SubtypePixel,
		Min: 0.5, Max: 40, Default: FloatValue(12)},
	{ID: DyntopoRadiusScale, Name: "Dyntopo Radius Scale", Category: "Dyntopo", Kind: KindFloat, Subtype: SubtypeFactor,
		Min: 0.0001, Max: 25, SoftMin: 0.1, SoftMax: 4, Default: FloatValue(1)},
	{ID: DyntopoSpacing, Name: "Dyntopo Spacing", Category: "Dyntopo", Kind: KindFloat, Subtype: SubtypePercentage,
		Min: 1, Max: 1000, SoftMin: 1, SoftMax: 500, Default: FloatValue(35)},
}

var index map[string]*TypeDef

func init() {
	index = make(map[string]*TypeDef, len(table))
	for i := range table {
		d := &table[i]
		d.normalize()
		if _, dup := index[d.ID]; dup {
			panic(fmt.Sprintf("channel: duplicate type definition %q", d.ID))
		}
		if err := CheckValue(d, d.Default); err != nil {
			panic(fmt.Sprintf("channel: bad default for %q: %v", d.ID, err))
		}
		index[d.ID] = d
	}
}

// Lookup returns the type definition for id.
func Lookup(id string) (*TypeDef, error) {
	d, ok := index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChannelNotFound, id)
	}
	return d, nil
}

// MustLookup is like Lookup but panics for unknown ids. Use it only with the
// identifier constants of this package.
func MustLookup(id string) *TypeDef {
	d, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return d
}

// All returns every definition in table order.
func All() []*TypeDef {
	out := make([]*TypeDef, len(table))
	for i := range table {
		out[i] = &table[i]
	}
	return out
}

// IDs returns all channel ids, sorted.
func IDs() []string {
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered channels.
func Len() int {
	return len(table)
}
