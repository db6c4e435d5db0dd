package filter

import (
	"cmp"
	"slices"

	"github.com/V4T54L/voicewatch/internal/conversation"
)

// Composite ANDs at most one filter per kind. The zero value is an empty composite.
// A Composite is not safe for concurrent mutation.
type Composite struct {
	filters map[Kind]Filter
}

// NewComposite returns a composite holding the given filters. Later filters replace
// earlier ones of the same kind.
func NewComposite(filters ...Filter) *Composite {
	c := &Composite{filters: make(map[Kind]Filter, len(filters))}
	for _, f := range filters {
		c.Set(f)
	}
	return c
}

// Set registers f, replacing any filter of the same kind.
func (c *Composite) Set(f Filter) {
	if f == nil {
		return
	}
	if c.filters == nil {
		c.filters = make(map[Kind]Filter)
	}
	c.filters[f.Kind()] = f
}

// Clear removes the filter of the given kind.
func (c *Composite) Clear(kind Kind) {
	delete(c.filters, kind)
}

// Get returns the active filter of the given kind.
func (c *Composite) Get(kind Kind) (Filter, bool) {
	f, ok := c.filters[kind]
	return f, ok
}

// Filters returns the active filters ordered by kind.
func (c *Composite) Filters() []Filter {
	out := make([]Filter, 0, len(c.filters))
	for _, f := range c.filters {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Filter) int {
		return cmp.Compare(a.Kind(), b.Kind())
	})
	return out
}

// Len is the number of active filters.
func (c *Composite) Len() int {
	return len(c.filters)
}

// Match reports whether every active filter accepts the conversation. An empty
// composite accepts everything.
func (c *Composite) Match(conv *conversation.Conversation) bool {
	for _, f := range c.filters {
		if !f.Match(conv) {
			return false
		}
	}
	return true
}

// Apply returns the conversations accepted by m, preserving their order.
func Apply(convos []*conversation.Conversation, m Matcher) []*conversation.Conversation {
	out := make([]*conversation.Conversation, 0, len(convos))
	for _, c := range convos {
		if m.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
