package clean

import (
	"fmt"
)

// Options selects the cleaning passes to run.
type Options struct {
	ClearInlineStyles    bool `json:"clearInlineStyles"`
	ClearClassesAndIDs   bool `json:"clearClassesAndIds"`
	CharacterEncoding    bool `json:"characterEncoding"`
	ClearComments        bool `json:"clearComments"`
	ClearSpanTags        bool `json:"clearSpanTags"`
	ClearSuccessiveNbsp  bool `json:"clearSuccessiveNbsp"`
	ClearTagsWithOneNbsp bool `json:"clearTagsWithOneNbsp"`
	ClearEmptyTags       bool `json:"clearEmptyTags"`
	ClearTagAttributes   bool `json:"clearTagAttributes"`
	ClearAllTags         bool `json:"clearAllTags"`
	ClearImages          bool `json:"clearImages"`
	ClearLinks           bool `json:"clearLinks"`
	ClearTables          bool `json:"clearTables"`
	ConvertTablesToDivs  bool `json:"convertTablesToDivs"`
	OrganizeTreeView     bool `json:"organizeTreeView"`
}

// Option describes one flag for clients that render a checklist.
type Option struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

type flag struct {
	key   string
	label string
	field func(*Options) *bool
}

var flags = []flag{
	{"clearInlineStyles", "Clear inline styles", func(o *Options) *bool { return &o.ClearInlineStyles }},
	{"clearClassesAndIds", "Clear classes and IDs", func(o *Options) *bool { return &o.ClearClassesAndIDs }},
	{"characterEncoding", "Character encoding", func(o *Options) *bool { return &o.CharacterEncoding }},
	{"clearComments", "Clear comments", func(o *Options) *bool { return &o.ClearComments }},
	{"clearSpanTags", "Clear span tags", func(o *Options) *bool { return &o.ClearSpanTags }},
	{"clearSuccessiveNbsp", "Clear successive &nbsp;'s", func(o *Options) *bool { return &o.ClearSuccessiveNbsp }},
	{"clearTagsWithOneNbsp", "Clear tags with one &nbsp;", func(o *Options) *bool { return &o.ClearTagsWithOneNbsp }},
	{"clearEmptyTags", "Clear empty tags", func(o *Options) *bool { return &o.ClearEmptyTags }},
	{"clearTagAttributes", "Clear tag attributes", func(o *Options) *bool { return &o.ClearTagAttributes }},
	{"clearAllTags", "Clear all tags", func(o *Options) *bool { return &o.ClearAllTags }},
	{"clearImages", "Clear images", func(o *Options) *bool { return &o.ClearImages }},
	{"clearLinks", "Clear links", func(o *Options) *bool { return &o.ClearLinks }},
	{"clearTables", "Clear tables", func(o *Options) *bool { return &o.ClearTables }},
	{"convertTablesToDivs", "Convert tables to <div>s", func(o *Options) *bool { return &o.ConvertTablesToDivs }},
	{"organizeTreeView", "Organize tree-view", func(o *Options) *bool { return &o.OrganizeTreeView }},
}

// DefaultOptions enables every pass.
func DefaultOptions() Options {
	var o Options
	for _, f := range flags {
		*f.field(&o) = true
	}
	return o
}

// OptionList returns the flags in display order.
func OptionList() []Option {
	out := make([]Option, 0, len(flags))
	for _, f := range flags {
		out = append(out, Option{Key: f.key, Label: f.label, Default: true})
	}
	return out
}

// ParseOptions builds Options from a key/value map. Keys left out are off.
// An empty map means the defaults.
func ParseOptions(m map[string]bool) (Options, error) {
	if len(m) == 0 {
		return DefaultOptions(), nil
	}
	var o Options
	for key, on := range m {
		f, ok := lookup(key)
		if !ok {
			return Options{}, fmt.Errorf("%w: %s", ErrUnknownOption, key)
		}
		*f.field(&o) = on
	}
	return o, nil
}

// Map returns the options keyed by flag name.
func (o Options) Map() map[string]bool {
	out := make(map[string]bool, len(flags))
	for _, f := range flags {
		out[f.key] = *f.field(&o)
	}
	return out
}

func lookup(key string) (flag, bool) {
	for _, f := range flags {
		if f.key == key {
			return f, true
		}
	}
	return flag{}, false
}
