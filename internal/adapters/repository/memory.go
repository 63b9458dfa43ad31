package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/pkg/metrics"
)

// MemoryStore keeps every event and reference row in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	closed    bool
	events    map[string][]model.Event // company -> events
	ids       map[string]struct{}
	schedules map[string]model.CompanySchedule
	sites     map[string]map[string]model.Site
	drivers   map[string]map[string]model.Driver
	vehicles  map[string]map[string]model.Vehicle
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:    make(map[string][]model.Event),
		ids:       make(map[string]struct{}),
		schedules: make(map[string]model.CompanySchedule),
		sites:     make(map[string]map[string]model.Site),
		drivers:   make(map[string]map[string]model.Driver),
		vehicles:  make(map[string]map[string]model.Vehicle),
	}
}

func (s *MemoryStore) AppendEvent(ctx context.Context, e model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.ids[e.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, e.ID)
	}
	s.ids[e.ID] = struct{}{}
	e.Timestamp = e.At()
	s.events[e.CompanyID] = append(s.events[e.CompanyID], e)
	return nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("list_events", since(start)) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Event, 0)
	for _, e := range s.events[f.CompanyID] {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func (s *MemoryStore) GetSchedule(ctx context.Context, companyID string) (model.CompanySchedule, error) {
	if err := ctx.Err(); err != nil {
		return model.CompanySchedule{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schedules[companyID]
	if !ok {
		return model.CompanySchedule{}, fmt.Errorf("schedule for company %s: %w", companyID, ErrNotFound)
	}
	return sc, nil
}

func (s *MemoryStore) ListSites(ctx context.Context, companyID string) ([]model.Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.sites[companyID], func(v model.Site) string { return v.ID }), nil
}

func (s *MemoryStore) ListDrivers(ctx context.Context, companyID string) ([]model.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.drivers[companyID], func(v model.Driver) string { return v.ID }), nil
}

func (s *MemoryStore) ListVehicles(ctx context.Context, companyID string) ([]model.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.vehicles[companyID], func(v model.Vehicle) string { return v.ID }), nil
}

func (s *MemoryStore) PutSchedule(_ context.Context, sc model.CompanySchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sc.CompanyID] = sc
	return nil
}

func (s *MemoryStore) PutSite(_ context.Context, site model.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	put(s.sites, site.CompanyID, site.ID, site)
	return nil
}

func (s *MemoryStore) PutDriver(_ context.Context, d model.Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	put(s.drivers, d.CompanyID, d.ID, d)
	return nil
}

func (s *MemoryStore) PutVehicle(_ context.Context, v model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	put(s.vehicles, v.CompanyID, v.ID, v)
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Events:    int64(len(s.ids)),
		Companies: int64(len(s.events)),
	}
	for _, m := range s.sites {
		st.Sites += int64(len(m))
	}
	for _, m := range s.drivers {
		st.Drivers += int64(len(m))
	}
	return st, nil
}

// Close makes every later event call fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func put[V any](m map[string]map[string]V, company, id string, v V) {
	inner, ok := m[company]
	if !ok {
		inner = make(map[string]V)
		m[company] = inner
	}
	inner[id] = v
}

func sortedValues[V any](m map[string]V, key func(V) string) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b V) int { return strings.Compare(key(a), key(b)) })
	return out
}
