// ABOUTME: In-memory opportunity cache fed by flat, per-stage, and mutation paths
// ABOUTME: Merges by id without dropping records and discards stale fetch results
package aggregate

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

// ErrSuperseded is returned to a fetch whose scope was reset while it ran.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

const DefaultPageSize = 25

var newestFirst = &gateway.Order{Field: "createdAt", Desc: true}

// pageState tracks one paginated scope: the flat list or a single stage.
type pageState struct {
	cursor  string
	hasMore bool
	loaded  bool
	loading bool
	gen     uint64
	cancel  context.CancelFunc
}

// Store is the merged opportunity cache. It is safe for concurrent use.
type Store struct {
	gw       gateway.Gateway
	pageSize int
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	records map[string]models.Opportunity
	order   []string
	// clock counts local mutations; epochs and tombstones record the clock
	// value of each record's latest Apply or Evict.
	clock      uint64
	epochs     map[string]uint64
	tombstones map[string]uint64
	list       pageState
	stages     map[string]*pageState
	counts     []StageCount
}

type Option func(*Store)

func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.logger = l.With("component", "aggregate")
	}
}

// WithClock overrides the time source used for dashboard windows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(gw gateway.Gateway, opts ...Option) *Store {
	s := &Store{
		gw:         gw,
		pageSize:   DefaultPageSize,
		logger:     log.Default().With("component", "aggregate"),
		now:        time.Now,
		records:    make(map[string]models.Opportunity),
		epochs:     make(map[string]uint64),
		tombstones: make(map[string]uint64),
		stages:     make(map[string]*pageState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Merge folds a fetched batch into the cache. Existing ids are replaced,
// new ids are appended, and nothing absent from the batch is removed.
func (s *Store) Merge(opps ...models.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(opps, s.clock)
}

// mergeLocked skips records changed or evicted locally after the fetch
// that produced them started.
func (s *Store) mergeLocked(opps []models.Opportunity, startedAt uint64) int {
	merged := 0
	for _, opp := range opps {
		if opp.ID == "" {
			continue
		}
		if s.epochs[opp.ID] > startedAt || s.tombstones[opp.ID] > startedAt {
			continue
		}
		s.upsertLocked(opp)
		merged++
	}
	return merged
}

func (s *Store) upsertLocked(opp models.Opportunity) {
	if _, ok := s.records[opp.ID]; !ok {
		s.order = append(s.order, opp.ID)
	}
	s.records[opp.ID] = opp.Clone()
}

// Apply records the confirmed result of a local mutation. It always wins
// over fetches that were in flight when it happened.
func (s *Store) Apply(opp models.Opportunity) {
	if opp.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock++
	s.epochs[opp.ID] = s.clock
	delete(s.tombstones, opp.ID)
	s.upsertLocked(opp)
}

// Evict drops a deleted record. In-flight fetches cannot bring it back.
func (s *Store) Evict(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clock++
	for _, id := range ids {
		s.tombstones[id] = s.clock
		delete(s.epochs, id)
		if _, ok := s.records[id]; !ok {
			continue
		}
		delete(s.records, id)
		for i, existing := range s.order {
			if existing == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Get returns a copy of the cached record.
func (s *Store) Get(id string) (models.Opportunity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opp, ok := s.records[id]
	if !ok {
		return models.Opportunity{}, false
	}
	return opp.Clone(), true
}

// All returns every cached record in first-seen order.
func (s *Store) All() []models.Opportunity {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Opportunity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Stage returns cached records currently in stageID, newest first.
func (s *Store) Stage(stageID string) []models.Opportunity {
	s.mu.Lock()
	var out []models.Opportunity
	for _, id := range s.order {
		if opp := s.records[id]; opp.Stage == stageID {
			out = append(out, opp.Clone())
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ScopeStatus describes the pagination state of the flat list or a stage.
type ScopeStatus struct {
	Loaded  bool
	HasMore bool
	Loading bool
}

func (s *Store) ListStatus() ScopeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statusOf(&s.list)
}

func (s *Store) StageStatus(stageID string) ScopeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stages[stageID]
	if !ok {
		return ScopeStatus{}
	}
	return statusOf(st)
}

func statusOf(st *pageState) ScopeStatus {
	return ScopeStatus{Loaded: st.loaded, HasMore: st.hasMore, Loading: st.loading}
}

func (s *Store) stageStateLocked(stageID string) *pageState {
	st, ok := s.stages[stageID]
	if !ok {
		st = &pageState{}
		s.stages[stageID] = st
	}
	return st
}

// LoadPage fetches the first page of the flat list, cancelling any list
// fetch still in flight.
func (s *Store) LoadPage(ctx context.Context) (int, error) {
	_, n, err := s.fetch(ctx, func() *pageState { return &s.list }, nil, true)
	return n, err
}

// LoadMorePage fetches the next flat-list page. It is a no-op, returning
// false, while another list fetch is running or when nothing is left.
func (s *Store) LoadMorePage(ctx context.Context) (bool, error) {
	started, _, err := s.fetch(ctx, func() *pageState { return &s.list }, nil, false)
	return started, err
}

// LoadStage fetches the first page for stageID, cancelling any fetch for
// that stage still in flight.
func (s *Store) LoadStage(ctx context.Context, stageID string) (int, error) {
	_, n, err := s.fetch(ctx, func() *pageState { return s.stageStateLocked(stageID) },
		[]gateway.Filter{gateway.Eq("stage", stageID)}, true)
	return n, err
}

// LoadMoreStage appends the next page for stageID. Calls made while a
// fetch for the same stage is in flight are no-ops and return false.
func (s *Store) LoadMoreStage(ctx context.Context, stageID string) (bool, error) {
	started, _, err := s.fetch(ctx, func() *pageState { return s.stageStateLocked(stageID) },
		[]gateway.Filter{gateway.Eq("stage", stageID)}, false)
	return started, err
}

func (s *Store) fetch(ctx context.Context, scope func() *pageState, filters []gateway.Filter, reset bool) (bool, int, error) {
	s.mu.Lock()
	st := scope()
	if reset {
		if st.cancel != nil {
			st.cancel()
		}
		st.gen++
		st.cursor = ""
		st.hasMore = false
		st.loaded = false
	} else if st.loading || (st.loaded && !st.hasMore) {
		s.mu.Unlock()
		return false, 0, nil
	}

	fctx, cancel := context.WithCancel(ctx)
	st.loading = true
	st.cancel = cancel
	gen := st.gen
	cursor := st.cursor
	startedAt := s.clock
	s.mu.Unlock()

	page, err := s.gw.Query(fctx, models.CollectionOpportunities, gateway.Query{
		Filters: filters,
		Order:   newestFirst,
		Cursor:  cursor,
		Limit:   s.pageSize,
	})
	cancel()

	var opps []models.Opportunity
	if err == nil {
		opps, err = decodeAll(page.Docs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st.gen != gen {
		return true, 0, ErrSuperseded
	}
	st.loading = false
	st.cancel = nil

	if err != nil {
		s.logger.Warn("opportunity fetch failed", "filters", len(filters), "err", err)
		return true, 0, err
	}

	n := s.mergeLocked(opps, startedAt)
	st.cursor = page.NextCursor
	st.hasMore = page.HasMore
	st.loaded = true
	return true, n, nil
}

func decodeAll(docs []gateway.Document) ([]models.Opportunity, error) {
	out := make([]models.Opportunity, 0, len(docs))
	for _, doc := range docs {
		var opp models.Opportunity
		if err := gateway.Decode(doc, &opp); err != nil {
			return nil, err
		}
		out = append(out, opp)
	}
	return out, nil
}

// scanAll reads the entire opportunities collection.
func (s *Store) scanAll(ctx context.Context) ([]models.Opportunity, error) {
	docs, err := gateway.QueryAll(ctx, s.gw, models.CollectionOpportunities, gateway.Query{})
	if err != nil {
		return nil, err
	}
	return decodeAll(docs)
}

// Follow keeps the cache in step with the backing collection until ctx ends.
// Each pushed result set is the whole collection, so records missing from
// it were deleted elsewhere and are evicted unless changed locally since.
func (s *Store) Follow(ctx context.Context) error {
	stream, err := s.gw.Subscribe(ctx, models.CollectionOpportunities, nil)
	if err != nil {
		return err
	}

	for {
		s.mu.Lock()
		startedAt := s.clock
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case docs, ok := <-stream:
			if !ok {
				return ctx.Err()
			}
			opps, err := decodeAll(docs)
			if err != nil {
				s.logger.Warn("skipping undecodable result set", "err", err)
				continue
			}
			s.replace(opps, startedAt)
		}
	}
}

func (s *Store) replace(opps []models.Opportunity, startedAt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := make(map[string]bool, len(opps))
	for _, opp := range opps {
		present[opp.ID] = true
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if present[id] || s.epochs[id] > startedAt {
			kept = append(kept, id)
			continue
		}
		delete(s.records, id)
	}
	s.order = kept

	s.mergeLocked(opps, startedAt)
}
