package models

import "fmt"

// Caller is the identity an operation is performed on behalf of.
// It is implemented only by Admin and Employee.
type Caller interface {
	UserID() string
	Role() Role
	caller()
}

type Admin struct {
	ID string
}

func (a Admin) UserID() string { return a.ID }
func (Admin) Role() Role { return RoleAdmin }
func (Admin) caller() {}

type Employee struct {
	ID string
}

func (e Employee) UserID() string { return e.ID }
func (Employee) Role() Role { return RoleEmployee }
func (Employee) caller() {}

func NewCaller(userID string, role Role) (Caller, error) {
	switch role {
	case RoleAdmin:
		return Admin{ID: userID}, nil
	case RoleEmployee:
		return Employee{ID: userID}, nil
	default:
		return nil, fmt.Errorf("unknown role: %q", role)
	}
}
