// Package commandlist expands a resolved channel set into the ordered
// sub-operations of one stroke.
package commandlist

import "sort"

// ToolKind names a sculpt tool.
type ToolKind string

// Known tools.
const (
	ToolDraw             ToolKind = "draw"
	ToolDrawSharp        ToolKind = "draw_sharp"
	ToolClay             ToolKind = "clay"
	ToolClayStrips       ToolKind = "clay_strips"
	ToolClayThumb        ToolKind = "clay_thumb"
	ToolLayer            ToolKind = "layer"
	ToolInflate          ToolKind = "inflate"
	ToolBlob             ToolKind = "blob"
	ToolCrease           ToolKind = "crease"
	ToolSmooth           ToolKind = "smooth"
	ToolFlatten          ToolKind = "flatten"
	ToolFill             ToolKind = "fill"
	ToolScrape           ToolKind = "scrape"
	ToolMultiplaneScrape ToolKind = "multiplane_scrape"
	ToolPinch            ToolKind = "pinch"
	ToolGrab             ToolKind = "grab"
	ToolSnakeHook        ToolKind = "snake_hook"
	ToolThumb            ToolKind = "thumb"
	ToolPose             ToolKind = "pose"
	ToolNudge            ToolKind = "nudge"
	ToolRotate           ToolKind = "rotate"
	ToolElasticDeform    ToolKind = "elastic_deform"
	ToolBoundary         ToolKind = "boundary"
	ToolCloth            ToolKind = "cloth"
	ToolSimplify         ToolKind = "simplify"
	ToolMask             ToolKind = "mask"
	ToolDrawFaceSets     ToolKind = "draw_face_sets"
	ToolPaint            ToolKind = "paint"
	ToolSmear            ToolKind = "smear"
)

// capabilities lists which sub-operations a tool may spawn.
type capabilities struct {
	autosmooth   bool
	topologyRake bool
	dyntopo      bool
}

var (
	allStages = capabilities{autosmooth: true, topologyRake: true, dyntopo: true}
	noStages  = capabilities{}
)

var tools = map[ToolKind]capabilities{
	ToolDraw:             allStages,
	ToolDrawSharp:        allStages,
	ToolClay:             allStages,
	ToolClayStrips:       allStages,
	ToolClayThumb:        allStages,
	ToolLayer:            allStages,
	ToolInflate:          allStages,
	ToolBlob:             allStages,
	ToolCrease:           allStages,
	ToolFlatten:          allStages,
	ToolFill:             allStages,
	ToolScrape:           allStages,
	ToolMultiplaneScrape: allStages,
	ToolPinch:            allStages,
	ToolSnakeHook:        allStages,
	ToolSmooth:           {topologyRake: true, dyntopo: true},
	ToolSimplify:         {dyntopo: true},
	ToolGrab:             {autosmooth: true, topologyRake: true},
	ToolThumb:            {autosmooth: true, topologyRake: true},
	ToolNudge:            {autosmooth: true},
	ToolPose:             noStages,
	ToolRotate:           noStages,
	ToolElasticDeform:    noStages,
	ToolBoundary:         noStages,
	ToolCloth:            noStages,
	ToolMask:             noStages,
	ToolDrawFaceSets:     noStages,
	ToolPaint:            noStages,
	ToolSmear:            noStages,
}

// Known reports whether the tool is in the capability table.
func (t ToolKind) Known() bool {
	_, ok := tools[t]
	return ok
}

// Tools returns every known tool, sorted by name.
func Tools() []ToolKind {
	out := make([]ToolKind, 0, len(tools))
	for t := range tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
