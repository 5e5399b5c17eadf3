package model

import (
	"github.com/bytedance/sonic"
)

// OptionConfig describes one user-configurable plugin option.
type OptionConfig struct {
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// PluginInfo is a manifest entry from a plugin repository. Two entries with
// the same ID are the same plugin.
type PluginInfo struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Version     string                  `json:"version"`
	ContentURL  string                  `json:"contentUrl"`
	Description string                  `json:"description,omitempty"`
	Source      string                  `json:"source,omitempty"`
	SourceURL   string                  `json:"sourceUrl,omitempty"`
	Author      string                  `json:"author,omitempty"`
	AuthorURL   string                  `json:"authorUrl,omitempty"`
	Options     map[string]OptionConfig `json:"options,omitempty"`
}

// DefaultOptions returns the manifest defaults for every option that has one.
func (p PluginInfo) DefaultOptions() PluginOptions {
	out := make(PluginOptions, len(p.Options))
	for name, cfg := range p.Options {
		if cfg.Default != "" {
			out[name] = cfg.Default
		}
	}
	return out
}

// PluginContent is the cached executable source of one plugin version.
type PluginContent struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Content string `json:"content"`
}

// PluginOptions holds the user's option values for one plugin.
type PluginOptions map[string]string

// Clone returns an independent copy; nil stays nil.
func (o PluginOptions) Clone() PluginOptions {
	if o == nil {
		return nil
	}
	out := make(PluginOptions, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// PluginSet is an insertion-ordered set of plugins keyed by ID.
// The zero value is an empty set ready to use.
type PluginSet struct {
	items []PluginInfo
	index map[string]int
}

// NewPluginSet builds a set from plugins; a later duplicate replaces the
// earlier entry in place.
func NewPluginSet(plugins ...PluginInfo) PluginSet {
	var s PluginSet
	for _, p := range plugins {
		s.Put(p)
	}
	return s
}

// Put inserts p, or replaces the entry with the same ID keeping its position.
func (s *PluginSet) Put(p PluginInfo) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[p.ID]; ok {
		s.items[i] = p
		return
	}
	s.index[p.ID] = len(s.items)
	s.items = append(s.items, p)
}

// Remove deletes the plugin with id and reports whether it was present.
func (s *PluginSet) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	items := make([]PluginInfo, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	*s = NewPluginSet(items...)
	return true
}

// Get returns the plugin with id.
func (s PluginSet) Get(id string) (PluginInfo, bool) {
	i, ok := s.index[id]
	if !ok {
		return PluginInfo{}, false
	}
	return s.items[i], true
}

// Contains reports whether a plugin with id is in the set.
func (s PluginSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s PluginSet) Len() int { return len(s.items) }

// List returns a copy of the plugins in insertion order.
func (s PluginSet) List() []PluginInfo {
	out := make([]PluginInfo, len(s.items))
	copy(out, s.items)
	return out
}

// IDs returns the plugin ids in insertion order.
func (s PluginSet) IDs() []string {
	out := make([]string, len(s.items))
	for i, p := range s.items {
		out[i] = p.ID
	}
	return out
}

// Clone returns an independent copy of the set.
func (s PluginSet) Clone() PluginSet {
	return NewPluginSet(s.items...)
}

// MarshalJSON encodes the set as an array.
func (s PluginSet) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return sonic.Marshal(s.items)
}

// UnmarshalJSON decodes an array, collapsing duplicate ids.
func (s *PluginSet) UnmarshalJSON(data []byte) error {
	var items []PluginInfo
	if err := sonic.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewPluginSet(items...)
	return nil
}
