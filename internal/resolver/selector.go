package resolver

// Lookup reports the feed serving instrumentURL in table, if any.
func Lookup(table map[string]string, instrumentURL string) (string, bool) {
	feedURL, ok := table[instrumentURL]
	return feedURL, ok
}

// Selector picks a resolver per instrument
type Selector struct {
	deps  Deps
	feeds map[string]string
}

// NewSelector creates a selector over a static instrument to feed table.
func NewSelector(deps Deps, feeds map[string]string) *Selector {
	return &Selector{deps: deps.withDefaults(), feeds: feeds}
}

// Select returns a fresh resolver for instrumentURL: a FeedResolver when the
// instrument has a feed, an ArchiveResolver otherwise.
func (s *Selector) Select(instrumentURL string) Resolver {
	if feedURL, ok := Lookup(s.feeds, instrumentURL); ok {
		return NewFeedResolver(instrumentURL, feedURL, s.deps)
	}
	return NewArchiveResolver(instrumentURL, s.deps)
}
