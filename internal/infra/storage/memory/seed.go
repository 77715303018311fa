package memory

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/types"
)

// AddTenant stores a tenant; a zero ID is assigned from the sequence
func (s *Store) AddTenant(t domain.Tenant) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.committed.id()
	}
	s.committed.bumpTo(t.ID)
	s.committed.tenants[t.ID] = &t
	return t.ID
}

func (s *Store) AddService(svc domain.Service) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == 0 {
		svc.ID = s.committed.id()
	}
	s.committed.bumpTo(svc.ID)
	s.committed.services[svc.ID] = &svc
	return svc.ID
}

func (s *Store) AddEmployee(e domain.Employee) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.committed.id()
	}
	s.committed.bumpTo(e.ID)
	s.committed.employees[e.ID] = &e
	return e.ID
}

// AssignEmployee links an employee to a service
func (s *Store) AssignEmployee(employeeID, serviceID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.committed.assignments[serviceID]
	if !ok {
		set = map[int64]bool{}
		s.committed.assignments[serviceID] = set
	}
	set[employeeID] = true
}

func (s *Store) AddShift(sh domain.Shift) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == 0 {
		sh.ID = s.committed.id()
	}
	s.committed.bumpTo(sh.ID)
	s.committed.shifts[sh.ID] = &sh
	return sh.ID
}

func (s *Store) AddEmployeeShift(sh domain.EmployeeShift) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == 0 {
		sh.ID = s.committed.id()
	}
	s.committed.bumpTo(sh.ID)
	s.committed.employeeShifts[sh.ID] = &sh
	return sh.ID
}

// AddSubscription stores a subscription and one usage row per service quota
func (s *Store) AddSubscription(sub domain.PackageSubscription, quotas map[int64]int) (int64, map[int64]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == 0 {
		sub.ID = s.committed.id()
	}
	s.committed.bumpTo(sub.ID)
	s.committed.subscriptions[sub.ID] = &sub

	usageIDs := make(map[int64]int64, len(quotas))
	for serviceID, total := range quotas {
		u := &domain.PackageUsage{
			ID:             s.committed.id(),
			SubscriptionID: sub.ID,
			ServiceID:      serviceID,
			TotalQuantity:  total,
		}
		s.committed.usages[u.ID] = u
		usageIDs[serviceID] = u.ID
	}
	return sub.ID, usageIDs
}

// Usage returns a copy of a usage row
func (s *Store) Usage(id int64) (domain.PackageUsage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.committed.usages[id]
	if !ok {
		return domain.PackageUsage{}, false
	}
	return *u, true
}

// Exhaustions returns recorded package exhaustion events
func (s *Store) Exhaustions() []domain.PackageExhaustion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PackageExhaustion, 0, len(s.committed.exhaustions))
	for _, e := range s.committed.exhaustions {
		out = append(out, *e)
	}
	return out
}

// LockCount returns the number of stored locks, expired ones included
func (s *Store) LockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed.locks)
}

// SlotCount returns the number of materialized slots
func (s *Store) SlotCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed.slots)
}

func (s *state) bumpTo(id int64) {
	if id > s.nextID {
		s.nextID = id
	}
}

type seedFile struct {
	Tenants []struct {
		ID                 int64  `toml:"id"`
		Name               string `toml:"name"`
		Timezone           string `toml:"timezone"`
		SchedulingOverride string `toml:"scheduling_override"`
		RequirePayment     bool   `toml:"require_payment"`
	} `toml:"tenants"`

	Services []struct {
		ID              int64   `toml:"id"`
		TenantID        int64   `toml:"tenant_id"`
		Name            string  `toml:"name"`
		SchedulingType  string  `toml:"scheduling_type"`
		AssignmentMode  string  `toml:"assignment_mode"`
		DurationMinutes int     `toml:"duration_minutes"`
		DefaultCapacity int     `toml:"default_capacity"`
		Price           float64 `toml:"price"`
	} `toml:"services"`

	Employees []struct {
		ID       int64   `toml:"id"`
		TenantID int64   `toml:"tenant_id"`
		Name     string  `toml:"name"`
		Services []int64 `toml:"services"`
	} `toml:"employees"`

	Shifts []struct {
		TenantID  int64  `toml:"tenant_id"`
		ServiceID int64  `toml:"service_id"`
		Weekdays  []int  `toml:"weekdays"`
		StartTime string `toml:"start_time"`
		EndTime   string `toml:"end_time"`
		Capacity  int    `toml:"capacity"`
	} `toml:"shifts"`

	EmployeeShifts []struct {
		TenantID   int64  `toml:"tenant_id"`
		EmployeeID int64  `toml:"employee_id"`
		Weekdays   []int  `toml:"weekdays"`
		StartTime  string `toml:"start_time"`
		EndTime    string `toml:"end_time"`
	} `toml:"employee_shifts"`

	Subscriptions []struct {
		TenantID    int64      `toml:"tenant_id"`
		CustomerID  int64      `toml:"customer_id"`
		PackageName string     `toml:"package_name"`
		ExpiresAt   *time.Time `toml:"expires_at"`
		Usages      []struct {
			ServiceID int64 `toml:"service_id"`
			Total     int   `toml:"total"`
		} `toml:"usages"`
	} `toml:"subscriptions"`
}

// LoadSeed fills the store from a TOML fixture file
func (s *Store) LoadSeed(path string) error {
	var seed seedFile
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return fmt.Errorf("decode seed %s: %w", path, err)
	}

	now := time.Now()

	for _, t := range seed.Tenants {
		tenant := domain.Tenant{
			ID:             t.ID,
			Name:           t.Name,
			Timezone:       t.Timezone,
			RequirePayment: t.RequirePayment,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if t.SchedulingOverride != "" {
			st := domain.SchedulingType(t.SchedulingOverride)
			tenant.SchedulingOverride = &st
		}
		s.AddTenant(tenant)
	}

	for _, svc := range seed.Services {
		s.AddService(domain.Service{
			ID:              svc.ID,
			TenantID:        svc.TenantID,
			Name:            svc.Name,
			SchedulingType:  domain.SchedulingType(svc.SchedulingType),
			AssignmentMode:  domain.AssignmentMode(svc.AssignmentMode),
			DurationMinutes: svc.DurationMinutes,
			DefaultCapacity: svc.DefaultCapacity,
			Price:           svc.Price,
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	for _, e := range seed.Employees {
		id := s.AddEmployee(domain.Employee{ID: e.ID, TenantID: e.TenantID, Name: e.Name, IsActive: true, CreatedAt: now})
		for _, serviceID := range e.Services {
			s.AssignEmployee(id, serviceID)
		}
	}

	for i, sh := range seed.Shifts {
		start, end, err := parseWindow(sh.StartTime, sh.EndTime)
		if err != nil {
			return fmt.Errorf("seed shift #%d: %w", i, err)
		}
		s.AddShift(domain.Shift{
			TenantID:  sh.TenantID,
			ServiceID: sh.ServiceID,
			Weekdays:  sh.Weekdays,
			StartTime: start,
			EndTime:   end,
			Capacity:  sh.Capacity,
			IsActive:  true,
		})
	}

	for i, sh := range seed.EmployeeShifts {
		start, end, err := parseWindow(sh.StartTime, sh.EndTime)
		if err != nil {
			return fmt.Errorf("seed employee shift #%d: %w", i, err)
		}
		s.AddEmployeeShift(domain.EmployeeShift{
			TenantID:   sh.TenantID,
			EmployeeID: sh.EmployeeID,
			Weekdays:   sh.Weekdays,
			StartTime:  start,
			EndTime:    end,
			IsActive:   true,
		})
	}

	for _, sub := range seed.Subscriptions {
		quotas := make(map[int64]int, len(sub.Usages))
		for _, u := range sub.Usages {
			quotas[u.ServiceID] = u.Total
		}
		s.AddSubscription(domain.PackageSubscription{
			TenantID:    sub.TenantID,
			CustomerID:  sub.CustomerID,
			PackageName: sub.PackageName,
			Status:      domain.SubscriptionActive,
			ExpiresAt:   sub.ExpiresAt,
			CreatedAt:   now,
		}, quotas)
	}

	return nil
}

func parseWindow(start, end string) (types.TimeString, types.TimeString, error) {
	from, err := types.NewTimeStringFromString(start)
	if err != nil {
		return "", "", err
	}
	to, err := types.NewTimeStringFromString(end)
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}
