package commandlist

import (
	"errors"
	"fmt"

	"github.com/artpar/brushkit/core/channels"
	"github.com/artpar/brushkit/domain/channel"
)

// Stage is one named sub-operation. Stages always run in declaration order.
type Stage uint8

const (
	StagePrimary Stage = iota
	StageAutoSmooth
	StageTopologyRake
	StageRemesh
)

var stageNames = [...]string{
	StagePrimary:      "primary",
	StageAutoSmooth:   "autosmooth",
	StageTopologyRake: "topology_rake",
	StageRemesh:       "remesh",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", s)
}

// Command is one sub-operation with its own channel set. Every channel of
// Channels inherits from the resolved parent except the ones the stage
// overrides.
type Command struct {
	Stage    Stage
	Tool     ToolKind
	Channels *channels.Set
}

// List is the ordered command list of one stroke configuration.
type List struct {
	Tool     ToolKind
	Commands []*Command
}

// Stages returns the stage of every command in order.
func (l *List) Stages() []Stage {
	out := make([]Stage, len(l.Commands))
	for i, c := range l.Commands {
		out[i] = c.Stage
	}
	return out
}

// Command returns the command for stage s, or nil.
func (l *List) Command(s Stage) *Command {
	for _, c := range l.Commands {
		if c.Stage == s {
			return c
		}
	}
	return nil
}

// Build expands resolved into its command list. The primary command always
// comes first; autosmooth, topology rake and remesh follow when the resolved
// channels enable them and the tool permits them. Unknown tools get only the
// primary command. resolved is not modified.
func Build(tool ToolKind, resolved *channels.Set) (*List, error) {
	if resolved == nil {
		return nil, errors.New("build command list: nil channel set")
	}
	caps := tools[tool]
	l := &List{Tool: tool}

	if err := l.add(StagePrimary, tool, resolved); err != nil {
		return nil, err
	}

	autosmooth, err := floatOf(resolved, channel.Autosmooth)
	if err != nil {
		return nil, err
	}
	if caps.autosmooth && autosmooth > 0 {
		if err := l.add(StageAutoSmooth, ToolSmooth, resolved); err != nil {
			l.Free()
			return nil, err
		}
	}

	rake, err := floatOf(resolved, channel.TopologyRake)
	if err != nil {
		l.Free()
		return nil, err
	}
	if caps.topologyRake && rake > 0 {
		if err := l.add(StageTopologyRake, ToolSmooth, resolved); err != nil {
			l.Free()
			return nil, err
		}
	}

	disabled, err := boolOf(resolved, channel.DyntopoDisabled)
	if err != nil {
		l.Free()
		return nil, err
	}
	if caps.dyntopo && !disabled {
		if err := l.add(StageRemesh, ToolSimplify, resolved); err != nil {
			l.Free()
			return nil, err
		}
	}
	return l, nil
}

func (l *List) add(stage Stage, tool ToolKind, resolved *channels.Set) error {
	set, err := stageSet(stage, resolved)
	if err != nil {
		return err
	}
	l.Commands = append(l.Commands, &Command{Stage: stage, Tool: tool, Channels: set})
	return nil
}

// stageSet copies resolved with every channel inheriting, then applies the
// overrides of stage.
func stageSet(stage Stage, resolved *channels.Set) (*channels.Set, error) {
	set := resolved.Copy(stage.String())
	for _, ch := range set.Channels() {
		ch.SetInherit(true)
	}
	if err := applyStage(stage, set, resolved); err != nil {
		set.Free()
		return nil, fmt.Errorf("%s stage: %w", stage, err)
	}
	return set, nil
}

// Update rebuilds every command against a new parent. Stage overrides are
// recomputed from resolved, so an override the new parent switches off is
// dropped; the set of stages is kept. On error no command is changed.
func (l *List) Update(resolved *channels.Set) error {
	if resolved == nil {
		return errors.New("update command list: nil channel set")
	}
	sets := make([]*channels.Set, 0, len(l.Commands))
	for _, c := range l.Commands {
		set, err := stageSet(c.Stage, resolved)
		if err != nil {
			for _, s := range sets {
				s.Free()
			}
			return err
		}
		sets = append(sets, set)
	}
	for i, c := range l.Commands {
		c.Channels.Free()
		c.Channels = sets[i]
	}
	return nil
}

// Free releases every command's channel set.
func (l *List) Free() {
	for _, c := range l.Commands {
		c.Channels.Free()
	}
	l.Commands = nil
}
