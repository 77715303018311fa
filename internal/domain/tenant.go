package domain

import "time"

// SchedulingType how the bookable windows of a service are produced
type SchedulingType string

const (
	SchedulingServiceBased  SchedulingType = "service_based"
	SchedulingEmployeeBased SchedulingType = "employee_based"
)

// IsValid reports whether the scheduling type is known
func (s SchedulingType) IsValid() bool {
	return s == SchedulingServiceBased || s == SchedulingEmployeeBased
}

// AssignmentMode how an employee gets attached to an employee-based booking
type AssignmentMode string

const (
	AssignmentManual    AssignmentMode = "manual"
	AssignmentAutomatic AssignmentMode = "automatic"
	AssignmentBoth      AssignmentMode = "both"
)

// AllowsManual reports whether the customer may pick the employee
func (m AssignmentMode) AllowsManual() bool {
	return m == AssignmentManual || m == AssignmentBoth
}

// AllowsAutomatic reports whether the engine may pick the employee by rotation
func (m AssignmentMode) AllowsAutomatic() bool {
	return m == AssignmentAutomatic || m == AssignmentBoth
}

// Tenant is a business offering services
type Tenant struct {
	ID                 int64
	Name               string
	Timezone           string
	SchedulingOverride *SchedulingType // tenant-wide override of every service's own type
	RequirePayment     bool            // paid bookings start as pending_payment
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Location returns the tenant's time zone, UTC when unknown
func (t *Tenant) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Service is something a tenant sells in time-bounded slots
type Service struct {
	ID              int64
	TenantID        int64
	Name            string
	SchedulingType  SchedulingType
	AssignmentMode  AssignmentMode
	DurationMinutes int
	DefaultCapacity int
	Price           float64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EffectiveSchedulingType resolves the tenant override against the service's own type
func EffectiveSchedulingType(tenant *Tenant, service *Service) SchedulingType {
	if tenant != nil && tenant.SchedulingOverride != nil && tenant.SchedulingOverride.IsValid() {
		return *tenant.SchedulingOverride
	}
	if service.SchedulingType.IsValid() {
		return service.SchedulingType
	}
	return SchedulingServiceBased
}

// Employee is a staff member who can be individually scheduled
type Employee struct {
	ID        int64
	TenantID  int64
	Name      string
	IsActive  bool
	CreatedAt time.Time
}
