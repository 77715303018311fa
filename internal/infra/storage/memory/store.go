package memory

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

type txKey struct{}

type slotKey struct {
	owner int64 // shift id or employee id
	kind  byte  // 's' shift, 'e' employee
	serv  int64
	date  int64
	start string
}

type rotationKey struct {
	tenantID  int64
	serviceID int64
}

// state is one consistent snapshot of every table
type state struct {
	nextID int64

	tenants        map[int64]*domain.Tenant
	services       map[int64]*domain.Service
	employees      map[int64]*domain.Employee
	assignments    map[int64]map[int64]bool // service id -> employee ids
	shifts         map[int64]*domain.Shift
	employeeShifts map[int64]*domain.EmployeeShift
	slots          map[int64]*domain.Slot
	slotKeys       map[slotKey]int64
	locks          map[string]*domain.ReservationLock
	bookings       map[int64]*domain.Booking
	subscriptions  map[int64]*domain.PackageSubscription
	usages         map[int64]*domain.PackageUsage
	allocations    map[int64][]domain.PackageAllocation
	exhaustions    []*domain.PackageExhaustion
	rotation       map[rotationKey]*int64
}

func newState() *state {
	return &state{
		tenants:        map[int64]*domain.Tenant{},
		services:       map[int64]*domain.Service{},
		employees:      map[int64]*domain.Employee{},
		assignments:    map[int64]map[int64]bool{},
		shifts:         map[int64]*domain.Shift{},
		employeeShifts: map[int64]*domain.EmployeeShift{},
		slots:          map[int64]*domain.Slot{},
		slotKeys:       map[slotKey]int64{},
		locks:          map[string]*domain.ReservationLock{},
		bookings:       map[int64]*domain.Booking{},
		subscriptions:  map[int64]*domain.PackageSubscription{},
		usages:         map[int64]*domain.PackageUsage{},
		allocations:    map[int64][]domain.PackageAllocation{},
		rotation:       map[rotationKey]*int64{},
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for k, v := range s.tenants {
		cp := *v
		c.tenants[k] = &cp
	}
	for k, v := range s.services {
		cp := *v
		c.services[k] = &cp
	}
	for k, v := range s.employees {
		cp := *v
		c.employees[k] = &cp
	}
	for k, v := range s.assignments {
		set := make(map[int64]bool, len(v))
		for e := range v {
			set[e] = true
		}
		c.assignments[k] = set
	}
	for k, v := range s.shifts {
		cp := *v
		c.shifts[k] = &cp
	}
	for k, v := range s.employeeShifts {
		cp := *v
		c.employeeShifts[k] = &cp
	}
	for k, v := range s.slots {
		cp := *v
		c.slots[k] = &cp
	}
	for k, v := range s.slotKeys {
		c.slotKeys[k] = v
	}
	for k, v := range s.locks {
		cp := *v
		c.locks[k] = &cp
	}
	for k, v := range s.bookings {
		cp := *v
		c.bookings[k] = &cp
	}
	for k, v := range s.subscriptions {
		cp := *v
		c.subscriptions[k] = &cp
	}
	for k, v := range s.usages {
		cp := *v
		c.usages[k] = &cp
	}
	for k, v := range s.allocations {
		c.allocations[k] = append([]domain.PackageAllocation(nil), v...)
	}
	c.exhaustions = append(c.exhaustions, s.exhaustions...)
	for k, v := range s.rotation {
		if v == nil {
			c.rotation[k] = nil
			continue
		}
		id := *v
		c.rotation[k] = &id
	}
	return c
}

// Store is an in-process storage driver with serializable transactions.
// A transaction holds the store mutex from begin to commit and works on a
// private copy of the state, which replaces the committed state only on success.
type Store struct {
	mu        sync.Mutex
	committed *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{committed: newState()}
}

// Do runs fn in a transaction; a nested call joins the outer one
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.committed.clone()
	if err := fn(context.WithValue(ctx, txKey{}, working)); err != nil {
		return err
	}

	s.committed = working
	return nil
}

// DoSerializable every memory transaction is serializable
func (s *Store) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Do(ctx, fn)
}

// DoReadOnly runs fn against a snapshot; changes are discarded
func (s *Store) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, s.committed.clone()))
}

// with runs fn on the transaction state, or on the committed state under the mutex
func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if st, ok := ctx.Value(txKey{}).(*state); ok {
		return fn(st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.committed)
}

// Catalog returns the tenant/service/employee repository
func (s *Store) Catalog() *CatalogRepository { return &CatalogRepository{store: s} }

// Schedules returns the shift template repository
func (s *Store) Schedules() *ScheduleRepository { return &ScheduleRepository{store: s} }

// Slots returns the slot repository
func (s *Store) Slots() *SlotRepository { return &SlotRepository{store: s} }

// Locks returns the reservation lock repository
func (s *Store) Locks() *LockRepository { return &LockRepository{store: s} }

// Bookings returns the booking repository
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{store: s} }

// Packages returns the package ledger repository
func (s *Store) Packages() *PackageRepository { return &PackageRepository{store: s} }

// Rotation returns the rotation pointer repository
func (s *Store) Rotation() *RotationRepository { return &RotationRepository{store: s} }
