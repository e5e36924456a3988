// Package models defines the domain models for the production apportionment service
package models

import (
	"time"
)

// Role is the permission profile of an authenticated employee.
type Role string

const (
	RoleGestor      Role = "gestor"
	RoleFuncionario Role = "funcionario"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleGestor || r == RoleFuncionario
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}
