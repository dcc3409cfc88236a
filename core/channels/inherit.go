package channels

import (
	"errors"

	"github.com/artpar/brushkit/domain/channel"
)

// ErrAliasedSets is returned by Merge when the destination is also an input.
var ErrAliasedSets = errors.New("merge destination aliases an input set")

// Merge resolves child against parent into dst. For every channel id in
// child or parent:
//
//   - a channel only one side has is copied from that side;
//   - a child channel flagged inherit takes value, mappings and curve from
//     the parent and keeps its own flags;
//   - a bitmask child flagged inherit-if-unset gets child | parent;
//   - inherit-if-unset on any other kind acts as a full inherit;
//   - otherwise the child's copy is used.
//
// Mapping slots flagged inherit are copied from the parent's slot whatever
// the channel flags say. Child and parent are never modified, and merging
// again with the same inputs gives the same dst. Channels of dst that
// neither input holds are left alone.
func Merge(dst, child, parent *Set) error {
	if dst == child || dst == parent {
		return ErrAliasedSets
	}

	for id, cch := range child.chans {
		pch, ok := parent.chans[id]
		if !ok {
			dst.Put(cch.Copy(dst.cache))
			continue
		}
		dst.Put(resolveChannel(cch, pch, dst))
	}
	for id, pch := range parent.chans {
		if _, ok := child.chans[id]; ok {
			continue
		}
		dst.Put(pch.Copy(dst.cache))
	}
	return nil
}

// resolveChannel builds the resolved copy of a channel both sides hold.
func resolveChannel(cch, pch *Channel, dst *Set) *Channel {
	out := cch.Copy(dst.cache)

	fullInherit := cch.Flags.Has(channel.FlagInherit) ||
		(cch.Flags.Has(channel.FlagInheritIfUnset) && cch.Def.Kind != channel.KindBitmask)

	switch {
	case fullInherit:
		out.takeFrom(pch)
	case cch.Flags.Has(channel.FlagInheritIfUnset):
		cv, _ := cch.value.(channel.IntValue)
		pv, _ := pch.value.(channel.IntValue)
		out.value = cv | pv
	}

	if !fullInherit {
		for i := range out.Mappings {
			if !cch.Mappings[i].Inherits() {
				continue
			}
			out.Mappings[i].copyFrom(&pch.Mappings[i], dst.cache)
			out.Mappings[i].Flags |= channel.MappingInherit
		}
	}
	return out
}

// Resolve merges layers from root to leaf: layers[0] is the outermost parent
// (tool defaults) and the last layer the most specific override. The result
// is a new set named name; the layers are not modified.
func Resolve(name string, layers ...*Set) (*Set, error) {
	if len(layers) == 0 {
		return nil, errors.New("resolve: no layers")
	}
	acc := layers[0].Copy(name)
	for _, layer := range layers[1:] {
		dst := NewSet(name, acc.cache)
		if err := Merge(dst, layer, acc); err != nil {
			acc.Free()
			return nil, err
		}
		acc.Free()
		acc = dst
	}
	return acc, nil
}
