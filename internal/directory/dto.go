package directory

import "time"

// DefaultRadiusMeters is applied when an office is registered without an
// explicit geofence radius.
const DefaultRadiusMeters = 100

type CreateOfficeRequest struct {
	BranchName   string   `json:"branch_name" binding:"required"`
	CompanyName  string   `json:"company_name" binding:"required"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	RadiusMeters *float64 `json:"radius_meters,omitempty"`
}

type OfficeResponse struct {
	OfficeULID    string    `json:"office_ulid"`
	BranchName    string    `json:"branch_name"`
	CompanyName   string    `json:"company_name"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	RadiusMeters  float64   `json:"radius_meters"`
	EmployeeCount int64     `json:"employee_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateEmployeeRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email,omitempty"`
	BranchName  string `json:"branch_name" binding:"required"`
	CompanyName string `json:"company_name" binding:"required"`
}

type EmployeeResponse struct {
	EmployeeID  int64     `json:"employee_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	BranchName  string    `json:"branch_name"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type LookupEmployeesRequest struct {
	BranchName  string `json:"branch_name" binding:"required"`
	CompanyName string `json:"company_name" binding:"required"`
}

type LookupEmployeesResponse struct {
	Employees     []EmployeeResponse `json:"employees"`
	EmployeeCount int64              `json:"employee_count"`
}

type ListOfficesResponse struct {
	Offices []OfficeResponse `json:"offices"`
}
