package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/catalog"
	lockRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/lock"
	packagesRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/packages"
	slotRepo "github.com/m04kA/SMC-ReservationEngine/internal/infra/storage/slot"
)

// CatalogRepository in-memory counterpart of catalog.Repository
type CatalogRepository struct{ store *Store }

func (r *CatalogRepository) GetTenant(ctx context.Context, tenantID int64) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := r.store.with(ctx, func(st *state) error {
		t, ok := st.tenants[tenantID]
		if !ok {
			return catalogRepo.ErrTenantNotFound
		}
		cp := *t
		out = &cp
		return nil
	})
	return out, err
}

func (r *CatalogRepository) GetService(ctx context.Context, tenantID, serviceID int64) (*domain.Service, error) {
	var out *domain.Service
	err := r.store.with(ctx, func(st *state) error {
		svc, ok := st.services[serviceID]
		if !ok || svc.TenantID != tenantID {
			return catalogRepo.ErrServiceNotFound
		}
		cp := *svc
		out = &cp
		return nil
	})
	return out, err
}

func (r *CatalogRepository) GetEmployee(ctx context.Context, tenantID, employeeID int64) (*domain.Employee, error) {
	var out *domain.Employee
	err := r.store.with(ctx, func(st *state) error {
		e, ok := st.employees[employeeID]
		if !ok || e.TenantID != tenantID {
			return catalogRepo.ErrEmployeeNotFound
		}
		cp := *e
		out = &cp
		return nil
	})
	return out, err
}

func (r *CatalogRepository) ListServiceEmployeeIDs(ctx context.Context, tenantID, serviceID int64) ([]int64, error) {
	ids := make([]int64, 0)
	err := r.store.with(ctx, func(st *state) error {
		for id := range st.assignments[serviceID] {
			e, ok := st.employees[id]
			if ok && e.TenantID == tenantID && e.IsActive {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

func (r *CatalogRepository) IsEmployeeAssigned(ctx context.Context, tenantID, employeeID, serviceID int64) (bool, error) {
	var assigned bool
	err := r.store.with(ctx, func(st *state) error {
		e, ok := st.employees[employeeID]
		assigned = ok && e.TenantID == tenantID && st.assignments[serviceID][employeeID]
		return nil
	})
	return assigned, err
}

// ScheduleRepository in-memory counterpart of schedule.Repository
type ScheduleRepository struct{ store *Store }

func (r *ScheduleRepository) ListActiveShifts(ctx context.Context, tenantID, serviceID int64) ([]*domain.Shift, error) {
	out := make([]*domain.Shift, 0)
	err := r.store.with(ctx, func(st *state) error {
		for _, sh := range st.shifts {
			if sh.TenantID == tenantID && sh.ServiceID == serviceID && sh.IsActive {
				cp := *sh
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime.IsBefore(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *ScheduleRepository) ListActiveEmployeeShifts(ctx context.Context, tenantID int64, employeeIDs []int64) ([]*domain.EmployeeShift, error) {
	wanted := toSet(employeeIDs)
	out := make([]*domain.EmployeeShift, 0)
	err := r.store.with(ctx, func(st *state) error {
		for _, sh := range st.employeeShifts {
			if sh.TenantID == tenantID && sh.IsActive && wanted[sh.EmployeeID] {
				cp := *sh
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].StartTime.IsBefore(out[j].StartTime)
	})
	return out, err
}

// SlotRepository in-memory counterpart of slot.Repository
type SlotRepository struct{ store *Store }

func keyOf(s *domain.Slot) slotKey {
	date := domain.NormalizeDate(s.Date).Unix()
	if s.EmployeeID != nil {
		return slotKey{owner: *s.EmployeeID, kind: 'e', serv: s.ServiceID, date: date, start: s.StartTime.String()}
	}
	var shiftID int64
	if s.ShiftID != nil {
		shiftID = *s.ShiftID
	}
	return slotKey{owner: shiftID, kind: 's', date: date, start: s.StartTime.String()}
}

func (r *SlotRepository) InsertIgnoreDuplicates(ctx context.Context, slots []*domain.Slot) (int, error) {
	inserted := 0
	err := r.store.with(ctx, func(st *state) error {
		now := time.Now()
		for _, s := range slots {
			key := keyOf(s)
			if _, exists := st.slotKeys[key]; exists {
				continue
			}
			cp := *s
			cp.ID = st.id()
			cp.Date = domain.NormalizeDate(s.Date)
			cp.CapacityBooked = 0
			cp.IsActive = true
			cp.CreatedAt = now
			cp.UpdatedAt = now
			st.slots[cp.ID] = &cp
			st.slotKeys[key] = cp.ID
			inserted++
		}
		return nil
	})
	return inserted, err
}

func (r *SlotRepository) ListByServiceAndDate(ctx context.Context, tenantID, serviceID int64, date time.Time) ([]*domain.Slot, error) {
	day := domain.NormalizeDate(date)
	out := make([]*domain.Slot, 0)
	err := r.store.with(ctx, func(st *state) error {
		for _, s := range st.slots {
			if s.TenantID == tenantID && s.ServiceID == serviceID && s.IsActive && s.Date.Equal(day) {
				cp := *s
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime.IsBefore(out[j].StartTime)
		}
		ei, ej := employeeOrZero(out[i]), employeeOrZero(out[j])
		if ei != ej {
			return ei < ej
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *SlotRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Slot, error) {
	var out *domain.Slot
	err := r.store.with(ctx, func(st *state) error {
		s, ok := st.slots[id]
		if !ok || s.TenantID != tenantID {
			return slotRepo.ErrSlotNotFound
		}
		cp := *s
		out = &cp
		return nil
	})
	return out, err
}

func (r *SlotRepository) AdjustBooked(ctx context.Context, tenantID, id int64, delta int) error {
	return r.store.with(ctx, func(st *state) error {
		s, ok := st.slots[id]
		if !ok || s.TenantID != tenantID {
			return slotRepo.ErrCapacityConflict
		}
		next := s.CapacityBooked + delta
		if next < 0 || next > s.CapacityTotal {
			return slotRepo.ErrCapacityConflict
		}
		s.CapacityBooked = next
		s.UpdatedAt = time.Now()
		return nil
	})
}

func employeeOrZero(s *domain.Slot) int64 {
	if s.EmployeeID == nil {
		return 0
	}
	return *s.EmployeeID
}

// LockRepository in-memory counterpart of lock.Repository
type LockRepository struct{ store *Store }

func (r *LockRepository) Create(ctx context.Context, lock *domain.ReservationLock) error {
	return r.store.with(ctx, func(st *state) error {
		cp := *lock
		st.locks[lock.ID] = &cp
		return nil
	})
}

func (r *LockRepository) GetByID(ctx context.Context, tenantID int64, id string) (*domain.ReservationLock, error) {
	var out *domain.ReservationLock
	err := r.store.with(ctx, func(st *state) error {
		l, ok := st.locks[id]
		if !ok || l.TenantID != tenantID {
			return lockRepo.ErrLockNotFound
		}
		cp := *l
		out = &cp
		return nil
	})
	return out, err
}

func (r *LockRepository) ListActiveBySlots(ctx context.Context, tenantID int64, slotIDs []int64, now time.Time) ([]*domain.ReservationLock, error) {
	wanted := toSet(slotIDs)
	out := make([]*domain.ReservationLock, 0)
	err := r.store.with(ctx, func(st *state) error {
		for _, l := range st.locks {
			if l.TenantID == tenantID && wanted[l.SlotID] && l.IsActive(now) {
				cp := *l
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].SlotID != out[j].SlotID {
			return out[i].SlotID < out[j].SlotID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

func (r *LockRepository) Delete(ctx context.Context, tenantID int64, id string) error {
	return r.store.with(ctx, func(st *state) error {
		l, ok := st.locks[id]
		if !ok || l.TenantID != tenantID {
			return lockRepo.ErrLockNotFound
		}
		delete(st.locks, id)
		return nil
	})
}

func (r *LockRepository) DeleteBySlotAndSession(ctx context.Context, tenantID, slotID int64, sessionID string) (int, error) {
	removed := 0
	err := r.store.with(ctx, func(st *state) error {
		for id, l := range st.locks {
			if l.TenantID == tenantID && l.SlotID == slotID && l.SessionID == sessionID {
				delete(st.locks, id)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (r *LockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := r.store.with(ctx, func(st *state) error {
		for id, l := range st.locks {
			if !l.IsActive(now) {
				delete(st.locks, id)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// BookingRepository in-memory counterpart of booking.Repository
type BookingRepository struct{ store *Store }

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	err := r.store.with(ctx, func(st *state) error {
		now := time.Now()
		b.ID = st.id()
		b.CreatedAt = now
		b.UpdatedAt = now
		cp := *b
		st.bookings[b.ID] = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.store.with(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok || b.TenantID != tenantID {
			return bookingRepo.ErrBookingNotFound
		}
		cp := *b
		out = &cp
		return nil
	})
	return out, err
}

func (r *BookingRepository) ListHoldingByEmployees(ctx context.Context, tenantID int64, employeeIDs []int64, date time.Time) ([]*domain.Booking, error) {
	wanted := toSet(employeeIDs)
	day := domain.NormalizeDate(date)
	out := make([]*domain.Booking, 0)
	err := r.store.with(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.TenantID != tenantID || b.EmployeeID == nil || !wanted[*b.EmployeeID] {
				continue
			}
			if b.IsHolding() && domain.NormalizeDate(b.BookingDate).Equal(day) {
				cp := *b
				out = append(out, &cp)
			}
		}
		return nil
	})
	sortBookings(out)
	return out, err
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, tenantID, customerID int64) ([]*domain.Booking, error) {
	out := make([]*domain.Booking, 0)
	err := r.store.with(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.TenantID == tenantID && b.CustomerID == customerID {
				cp := *b
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BookingDate.Equal(out[j].BookingDate) {
			return out[i].BookingDate.After(out[j].BookingDate)
		}
		return out[i].StartTime.IsAfter(out[j].StartTime)
	})
	return out, err
}

func (r *BookingRepository) UpdateSchedule(ctx context.Context, b *domain.Booking) error {
	return r.store.with(ctx, func(st *state) error {
		existing, ok := st.bookings[b.ID]
		if !ok || existing.TenantID != b.TenantID {
			return bookingRepo.ErrBookingNotFound
		}
		existing.SlotID = b.SlotID
		existing.EmployeeID = b.EmployeeID
		existing.BookingDate = b.BookingDate
		existing.StartTime = b.StartTime
		existing.EndTime = b.EndTime
		existing.EntryToken = b.EntryToken
		existing.RescheduledAt = b.RescheduledAt
		existing.UpdatedAt = time.Now()
		return nil
	})
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, tenantID, id int64, status domain.BookingStatus) error {
	return r.store.with(ctx, func(st *state) error {
		existing, ok := st.bookings[id]
		if !ok || existing.TenantID != tenantID {
			return bookingRepo.ErrBookingNotFound
		}
		existing.Status = status
		existing.UpdatedAt = time.Now()
		return nil
	})
}

func (r *BookingRepository) Cancel(ctx context.Context, tenantID, id int64, reason *string, cancelledAt time.Time) error {
	return r.store.with(ctx, func(st *state) error {
		existing, ok := st.bookings[id]
		if !ok || existing.TenantID != tenantID {
			return bookingRepo.ErrBookingNotFound
		}
		existing.Status = domain.StatusCancelled
		existing.CancellationReason = reason
		existing.CancelledAt = &cancelledAt
		existing.EntryToken = nil
		existing.UpdatedAt = time.Now()
		return nil
	})
}

func sortBookings(out []*domain.Booking) {
	sort.Slice(out, func(i, j int) bool {
		ei, ej := *out[i].EmployeeID, *out[j].EmployeeID
		if ei != ej {
			return ei < ej
		}
		return out[i].StartTime.IsBefore(out[j].StartTime)
	})
}

// PackageRepository in-memory counterpart of packages.Repository
type PackageRepository struct{ store *Store }

func (r *PackageRepository) ListUsagesForService(ctx context.Context, tenantID, customerID, serviceID int64, now time.Time) ([]*domain.PackageUsage, error) {
	out := make([]*domain.PackageUsage, 0)
	err := r.store.with(ctx, func(st *state) error {
		for _, u := range st.usages {
			if u.ServiceID != serviceID {
				continue
			}
			sub, ok := st.subscriptions[u.SubscriptionID]
			if !ok || sub.TenantID != tenantID || sub.CustomerID != customerID || !sub.IsUsable(now) {
				continue
			}
			cp := *u
			subCopy := *sub
			cp.Subscription = &subCopy
			out = append(out, &cp)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Subscription, out[j].Subscription
		switch {
		case a.ExpiresAt != nil && b.ExpiresAt == nil:
			return true
		case a.ExpiresAt == nil && b.ExpiresAt != nil:
			return false
		case a.ExpiresAt != nil && b.ExpiresAt != nil && !a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ExpiresAt.Before(*b.ExpiresAt)
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *PackageRepository) IncrementUsed(ctx context.Context, usageID int64, delta int) error {
	return r.store.with(ctx, func(st *state) error {
		u, ok := st.usages[usageID]
		if !ok {
			return packagesRepo.ErrUsageConflict
		}
		next := u.UsedQuantity + delta
		if next < 0 || next > u.TotalQuantity {
			return packagesRepo.ErrUsageConflict
		}
		u.UsedQuantity = next
		return nil
	})
}

func (r *PackageRepository) CreateAllocations(ctx context.Context, allocations []domain.PackageAllocation) error {
	return r.store.with(ctx, func(st *state) error {
		now := time.Now()
		for _, a := range allocations {
			a.CreatedAt = now
			st.allocations[a.BookingID] = append(st.allocations[a.BookingID], a)
		}
		return nil
	})
}

func (r *PackageRepository) ListAllocationsByBooking(ctx context.Context, bookingID int64) ([]domain.PackageAllocation, error) {
	var out []domain.PackageAllocation
	err := r.store.with(ctx, func(st *state) error {
		out = append([]domain.PackageAllocation{}, st.allocations[bookingID]...)
		return nil
	})
	return out, err
}

func (r *PackageRepository) DeleteAllocationsByBooking(ctx context.Context, bookingID int64) error {
	return r.store.with(ctx, func(st *state) error {
		delete(st.allocations, bookingID)
		return nil
	})
}

func (r *PackageRepository) CreateExhaustion(ctx context.Context, e *domain.PackageExhaustion) error {
	return r.store.with(ctx, func(st *state) error {
		e.ID = st.id()
		e.CreatedAt = time.Now()
		cp := *e
		st.exhaustions = append(st.exhaustions, &cp)
		return nil
	})
}

// RotationRepository in-memory counterpart of rotation.Repository
type RotationRepository struct{ store *Store }

func (r *RotationRepository) Get(ctx context.Context, tenantID, serviceID int64) (*domain.RotationPointer, error) {
	pointer := &domain.RotationPointer{TenantID: tenantID, ServiceID: serviceID}
	err := r.store.with(ctx, func(st *state) error {
		if last, ok := st.rotation[rotationKey{tenantID, serviceID}]; ok && last != nil {
			id := *last
			pointer.LastEmployeeID = &id
		}
		return nil
	})
	return pointer, err
}

func (r *RotationRepository) Set(ctx context.Context, pointer *domain.RotationPointer) error {
	return r.store.with(ctx, func(st *state) error {
		var last *int64
		if pointer.LastEmployeeID != nil {
			id := *pointer.LastEmployeeID
			last = &id
		}
		st.rotation[rotationKey{pointer.TenantID, pointer.ServiceID}] = last
		return nil
	})
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
