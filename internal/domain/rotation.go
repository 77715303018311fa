package domain

// RotationPointer last employee automatically assigned for a service
type RotationPointer struct {
	TenantID       int64
	ServiceID      int64
	LastEmployeeID *int64
}
