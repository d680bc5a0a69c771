package directory

import "time"

// Office is one row of the offices table: a registered geofence zone
// belonging to a company branch.
type Office struct {
	OfficeID     int64
	OfficeULID   string
	BranchName   string
	CompanyName  string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	CreatedAt    time.Time
}

// Employee is one row of the employees table.
type Employee struct {
	EmployeeID  int64
	Name        string
	Email       string
	BranchName  string
	CompanyName string
	CreatedAt   time.Time
}

func (o Office) toDTO(employeeCount int64) OfficeResponse {
	return OfficeResponse{
		OfficeULID:    o.OfficeULID,
		BranchName:    o.BranchName,
		CompanyName:   o.CompanyName,
		Latitude:      o.Latitude,
		Longitude:     o.Longitude,
		RadiusMeters:  o.RadiusMeters,
		EmployeeCount: employeeCount,
		CreatedAt:     o.CreatedAt,
	}
}

func (e Employee) toDTO() EmployeeResponse {
	return EmployeeResponse{
		EmployeeID:  e.EmployeeID,
		Name:        e.Name,
		Email:       e.Email,
		BranchName:  e.BranchName,
		CompanyName: e.CompanyName,
		CreatedAt:   e.CreatedAt,
	}
}
