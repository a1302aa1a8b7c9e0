package domain

import "time"

// Role of an authenticated operator
type Role string

const (
	RoleOperator   Role = "operator"
	RoleSupervisor Role = "supervisor"
	RoleManager    Role = "manager"
	RoleQC         Role = "qc"
	RoleShipping   Role = "shipping"
)

// OperatorSession is the result of a successful PIN check at a machine
type OperatorSession struct {
	OperatorID      string    `json:"operatorId"`
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	MachineID       string    `json:"machineId"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
}

// Valid reports whether the session identifies an operator
func (s *OperatorSession) Valid() bool {
	return s != nil && s.OperatorID != ""
}
