package schedule

import (
	"fmt"
	"strings"
)

// Roster is the fixed, ordered set of employees. Order is insertion order and
// drives the row order of every report.
type Roster struct {
	order []EmployeeID
	byID  map[EmployeeID]Employee
}

func NewRoster(employees ...Employee) (*Roster, error) {
	r := &Roster{byID: make(map[EmployeeID]Employee, len(employees))}
	for _, e := range employees {
		if err := r.add(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RosterFromNames numbers the names 1..n in order, like the reference roster.
func RosterFromNames(names ...string) (*Roster, error) {
	employees := make([]Employee, len(names))
	for i, n := range names {
		employees[i] = Employee{ID: EmployeeID(i + 1), Name: n}
	}
	return NewRoster(employees...)
}

func (r *Roster) add(e Employee) error {
	if _, ok := r.byID[e.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateEmployee, e.ID)
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("employee %d has no name", e.ID)
	}
	r.byID[e.ID] = e
	r.order = append(r.order, e.ID)
	return nil
}

func (r *Roster) Get(id EmployeeID) (Employee, bool) {
	e, ok := r.byID[id]
	return e, ok
}

func (r *Roster) Contains(id EmployeeID) bool {
	_, ok := r.byID[id]
	return ok
}

// Employees returns a copy in insertion order.
func (r *Roster) Employees() []Employee {
	out := make([]Employee, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

// IDs returns the employee ids in insertion order.
func (r *Roster) IDs() []EmployeeID {
	return append([]EmployeeID(nil), r.order...)
}

func (r *Roster) Len() int { return len(r.order) }
