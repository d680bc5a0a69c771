// Package directory is the registration backend for offices (geofence
// zones) and employees. It is consumed by admin tooling; the session
// controller reads its zone registry from configuration, not from here.
package directory

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Service struct {
	store DirectoryStore
	id    IDGen
}

func NewService(store DirectoryStore) *Service {
	return &Service{
		store: store,
		id:    ulidGen{},
	}
}

// POST /offices
func (s *Service) CreateOffice(ctx context.Context, req CreateOfficeRequest) (OfficeResponse, error) {
	if req.Latitude < -90 || req.Latitude > 90 {
		return OfficeResponse{}, NewInvalidArgumentError("latitude out of range")
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return OfficeResponse{}, NewInvalidArgumentError("longitude out of range")
	}
	radius := float64(DefaultRadiusMeters)
	if req.RadiusMeters != nil {
		if *req.RadiusMeters <= 0 {
			return OfficeResponse{}, NewInvalidArgumentError("radius_meters must be positive")
		}
		radius = *req.RadiusMeters
	}

	id, err := s.id.New()
	if err != nil {
		return OfficeResponse{}, NewInternalError(err.Error())
	}

	created, err := s.store.CreateOffice(ctx, &Office{
		OfficeULID:   id,
		BranchName:   req.BranchName,
		CompanyName:  req.CompanyName,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: radius,
	})
	if err != nil {
		return OfficeResponse{}, err
	}

	count, err := s.store.CountEmployees(ctx, created.CompanyName, created.BranchName)
	if err != nil {
		return OfficeResponse{}, err
	}
	return created.toDTO(count), nil
}

// GET /offices/:company
func (s *Service) ListOffices(ctx context.Context, company string) (ListOfficesResponse, error) {
	if company == "" {
		return ListOfficesResponse{}, NewInvalidArgumentError("company name is required")
	}

	offices, err := s.store.ListOfficesByCompany(ctx, company)
	if err != nil {
		return ListOfficesResponse{}, err
	}

	out := ListOfficesResponse{Offices: make([]OfficeResponse, 0, len(offices))}
	for _, o := range offices {
		count, err := s.store.CountEmployees(ctx, o.CompanyName, o.BranchName)
		if err != nil {
			return ListOfficesResponse{}, err
		}
		out.Offices = append(out.Offices, o.toDTO(count))
	}
	return out, nil
}

// DELETE /offices/:office_ulid
func (s *Service) DeleteOffice(ctx context.Context, officeULID string) error {
	if officeULID == "" {
		return NewInvalidArgumentError("office id is required")
	}
	n, err := s.store.DeleteOffice(ctx, officeULID)
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("office not found")
	}
	return nil
}

// POST /employees
func (s *Service) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	created, err := s.store.CreateEmployee(ctx, &Employee{
		Name:        req.Name,
		Email:       req.Email,
		BranchName:  req.BranchName,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		return EmployeeResponse{}, err
	}
	return created.toDTO(), nil
}

// POST /employees/lookup
func (s *Service) LookupEmployees(ctx context.Context, req LookupEmployeesRequest) (LookupEmployeesResponse, error) {
	employees, err := s.store.FindEmployees(ctx, req.CompanyName, req.BranchName)
	if err != nil {
		return LookupEmployeesResponse{}, err
	}

	out := LookupEmployeesResponse{
		Employees:     make([]EmployeeResponse, 0, len(employees)),
		EmployeeCount: int64(len(employees)),
	}
	for _, e := range employees {
		out.Employees = append(out.Employees, e.toDTO())
	}
	return out, nil
}

// DELETE /employees/:employee_id
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewInvalidArgumentError("employee id is required")
	}
	n, err := s.store.DeleteEmployee(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return NewNotFoundError("employee not found")
	}
	return nil
}
