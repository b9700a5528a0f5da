package reviewclient

import "context"

// State is the paginator's lifecycle state
type State int

const (
	StateIdle State = iota
	StateLoading
	StateError
	StateExhausted
)

// LoadMode controls whether scrolling or an explicit action fetches more
type LoadMode int

const (
	// LoadModeAuto: the first page loads on mount; seeing the last item
	// switches to manual rather than auto-fetching further.
	LoadModeAuto LoadMode = iota
	LoadModeManual
)

const (
	initialBatchSize = 10
	manualBatchSize  = 20
)

// Paginator owns the incremental review list for one collection. It is
// cooperative, not concurrency-safe: one fetch at a time, guarded by the
// Loading state. All aggregate state is re-derivable from the server.
type Paginator struct {
	client     *Client
	collection string

	reviews  []Review
	state    State
	loadMode LoadMode
	hasMore  bool
}

// NewPaginator creates a paginator over a review collection
func NewPaginator(client *Client, collection string) *Paginator {
	return &Paginator{
		client:     client,
		collection: collection,
		state:      StateIdle,
		loadMode:   LoadModeAuto,
		hasMore:    true,
	}
}

// LoadInitial fetches the first page. Call once on mount.
func (p *Paginator) LoadInitial(ctx context.Context) error {
	return p.fetch(ctx, 0, initialBatchSize)
}

// LastItemVisible signals that the viewer scrolled the last rendered item
// into view. In auto mode this switches to manual instead of fetching —
// a UX throttle, further pages need an explicit action.
func (p *Paginator) LastItemVisible() {
	if p.loadMode == LoadModeAuto && p.hasMore {
		p.loadMode = LoadModeManual
	}
}

// LoadMore fetches the next batch at the current list end. Only
// meaningful in manual mode; a no-op while a fetch is in flight or after
// the list is exhausted.
func (p *Paginator) LoadMore(ctx context.Context) error {
	return p.fetch(ctx, len(p.reviews), manualBatchSize)
}

func (p *Paginator) fetch(ctx context.Context, offset, limit int) error {
	if p.state == StateLoading {
		// Overlapping fetch guard
		return nil
	}
	if p.state == StateExhausted {
		return nil
	}

	p.state = StateLoading

	reviews, _, err := p.client.GetReviews(ctx, p.collection, limit, offset)
	if err != nil {
		logFetchError("paginate", err)
		p.state = StateError
		return err
	}

	p.reviews = append(p.reviews, reviews...)

	// A short page means the collection end was reached
	if len(reviews) < limit {
		p.hasMore = false
		p.state = StateExhausted
	} else {
		p.state = StateIdle
	}
	return nil
}

// Reviews returns the reviews fetched so far, in server order
func (p *Paginator) Reviews() []Review {
	return p.reviews
}

// HasMore reports whether another page may exist
func (p *Paginator) HasMore() bool {
	return p.hasMore
}

// State returns the current lifecycle state
func (p *Paginator) State() State {
	return p.state
}

// Mode returns the current load mode
func (p *Paginator) Mode() LoadMode {
	return p.loadMode
}
