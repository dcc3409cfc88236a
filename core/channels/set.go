package channels

import (
	"fmt"
	"sort"

	"github.com/artpar/brushkit/core/curvecache"
	"github.com/artpar/brushkit/domain/channel"
)

// Set is a named collection of channels keyed by id. It is not safe for
// concurrent mutation.
type Set struct {
	Name string

	chans map[string]*Channel
	cache *curvecache.Cache
}

// NewSet creates an empty set interning into cache.
func NewSet(name string, cache *curvecache.Cache) *Set {
	return &Set{
		Name:  name,
		chans: make(map[string]*Channel),
		cache: cache,
	}
}

// NewDefaultSet creates a set holding every registered channel at its
// default configuration.
func NewDefaultSet(name string, cache *curvecache.Cache) *Set {
	s := NewSet(name, cache)
	for _, def := range channel.All() {
		s.chans[def.ID] = NewChannel(def, cache)
	}
	return s
}

// Cache returns the cache the set interns into.
func (s *Set) Cache() *curvecache.Cache {
	return s.cache
}

// Len returns the number of channels.
func (s *Set) Len() int {
	return len(s.chans)
}

// Has reports whether the set holds channel id.
func (s *Set) Has(id string) bool {
	_, ok := s.chans[id]
	return ok
}

// Lookup returns the channel with the given id.
func (s *Set) Lookup(id string) (*Channel, error) {
	ch, ok := s.chans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q in set %q", channel.ErrChannelNotFound, id, s.Name)
	}
	return ch, nil
}

// Ensure returns channel id, adding it with registry defaults if missing.
// Unregistered ids return channel.ErrChannelNotFound.
func (s *Set) Ensure(id string) (*Channel, error) {
	if ch, ok := s.chans[id]; ok {
		return ch, nil
	}
	def, err := channel.Lookup(id)
	if err != nil {
		return nil, err
	}
	ch := NewChannel(def, s.cache)
	s.chans[id] = ch
	return ch, nil
}

// Put stores ch, replacing and freeing any channel with the same id. The set
// takes ownership of ch.
func (s *Set) Put(ch *Channel) {
	if old, ok := s.chans[ch.ID]; ok && old != ch {
		old.Free()
	}
	s.chans[ch.ID] = ch
}

// Remove frees and removes channel id.
func (s *Set) Remove(id string) {
	if ch, ok := s.chans[id]; ok {
		ch.Free()
		delete(s.chans, id)
	}
}

// IDs returns the channel ids in sorted order.
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.chans))
	for id := range s.chans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Channels returns the channels in id order.
func (s *Set) Channels() []*Channel {
	ids := s.IDs()
	out := make([]*Channel, len(ids))
	for i, id := range ids {
		out[i] = s.chans[id]
	}
	return out
}

// Copy returns a deep copy with the given name.
func (s *Set) Copy(name string) *Set {
	out := NewSet(name, s.cache)
	for id, ch := range s.chans {
		out.chans[id] = ch.Copy(s.cache)
	}
	return out
}

// Commit interns every private curve in the set.
func (s *Set) Commit() {
	for _, ch := range s.chans {
		ch.Commit()
	}
}

// Free releases all curves and empties the set.
func (s *Set) Free() {
	for id, ch := range s.chans {
		ch.Free()
		delete(s.chans, id)
	}
}

// SetInherit sets or clears the inherit flag of channel id.
func (s *Set) SetInherit(id string, on bool) error {
	ch, err := s.Ensure(id)
	if err != nil {
		return err
	}
	ch.SetInherit(on)
	return nil
}

// Get returns the base value of channel id.
func (s *Set) Get(id string) (channel.Value, error) {
	ch, err := s.Lookup(id)
	if err != nil {
		return nil, err
	}
	return ch.value, nil
}

// SetValue sets the base value of channel id, adding the channel if needed.
func (s *Set) SetValue(id string, v channel.Value) error {
	ch, err := s.Ensure(id)
	if err != nil {
		return err
	}
	return ch.SetValue(v)
}

func (s *Set) lookupKind(id string, kinds ...channel.Kind) (*Channel, error) {
	ch, err := s.Lookup(id)
	if err != nil {
		return nil, err
	}
	if err := checkKind(ch.Def, kinds); err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *Set) ensureKind(id string, kinds ...channel.Kind) (*Channel, error) {
	def, err := channel.Lookup(id)
	if err != nil {
		return nil, err
	}
	if err := checkKind(def, kinds); err != nil {
		return nil, err
	}
	return s.Ensure(id)
}

func checkKind(def *channel.TypeDef, kinds []channel.Kind) error {
	for _, k := range kinds {
		if def.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is %s", channel.ErrTypeMismatch, def.ID, def.Kind)
}

// GetFloat returns the value of a Float or Curve channel.
func (s *Set) GetFloat(id string) (float64, error) {
	ch, err := s.lookupKind(id, channel.KindFloat, channel.KindCurve)
	if err != nil {
		return 0, err
	}
	return float64(ch.value.(channel.FloatValue)), nil
}

// SetFloat sets the value of a Float or Curve channel.
func (s *Set) SetFloat(id string, v float64) error {
	ch, err := s.ensureKind(id, channel.KindFloat, channel.KindCurve)
	if err != nil {
		return err
	}
	return ch.SetValue(channel.FloatValue(v))
}

// GetInt returns the value of an Int, Enum or Bitmask channel.
func (s *Set) GetInt(id string) (int64, error) {
	ch, err := s.lookupKind(id, channel.KindInt, channel.KindEnum, channel.KindBitmask)
	if err != nil {
		return 0, err
	}
	return int64(ch.value.(channel.IntValue)), nil
}

// SetInt sets the value of an Int, Enum or Bitmask channel.
func (s *Set) SetInt(id string, v int64) error {
	ch, err := s.ensureKind(id, channel.KindInt, channel.KindEnum, channel.KindBitmask)
	if err != nil {
		return err
	}
	return ch.SetValue(channel.IntValue(v))
}

// GetBool returns the value of a Bool channel.
func (s *Set) GetBool(id string) (bool, error) {
	ch, err := s.lookupKind(id, channel.KindBool)
	if err != nil {
		return false, err
	}
	return ch.value.(channel.IntValue) != 0, nil
}

// SetBool sets the value of a Bool channel.
func (s *Set) SetBool(id string, v bool) error {
	ch, err := s.ensureKind(id, channel.KindBool)
	if err != nil {
		return err
	}
	var iv channel.IntValue
	if v {
		iv = 1
	}
	return ch.SetValue(iv)
}

// GetVec3 returns the value of a Vec3 channel.
func (s *Set) GetVec3(id string) ([3]float64, error) {
	ch, err := s.lookupKind(id, channel.KindVec3)
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64(ch.value.(channel.Vec3Value)), nil
}

// SetVec3 sets the value of a Vec3 channel.
func (s *Set) SetVec3(id string, v [3]float64) error {
	ch, err := s.ensureKind(id, channel.KindVec3)
	if err != nil {
		return err
	}
	return ch.SetValue(channel.Vec3Value(v))
}

// GetVec4 returns the value of a Vec4 channel.
func (s *Set) GetVec4(id string) ([4]float64, error) {
	ch, err := s.lookupKind(id, channel.KindVec4)
	if err != nil {
		return [4]float64{}, err
	}
	return [4]float64(ch.value.(channel.Vec4Value)), nil
}

// SetVec4 sets the value of a Vec4 channel.
func (s *Set) SetVec4(id string, v [4]float64) error {
	ch, err := s.ensureKind(id, channel.KindVec4)
	if err != nil {
		return err
	}
	return ch.SetValue(channel.Vec4Value(v))
}
