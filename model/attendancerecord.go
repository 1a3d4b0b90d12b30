package model

import (
	"fmt"
	"time"
)

type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// Opposite returns the punch type that follows p.
func (p PunchType) Opposite() PunchType {
	if p == PunchIn {
		return PunchOut
	}
	return PunchIn
}

func (p PunchType) Valid() bool {
	return p == PunchIn || p == PunchOut
}

type PunchState string

const (
	PunchedIn  PunchState = "PUNCHED_IN"
	PunchedOut PunchState = "PUNCHED_OUT"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Coordinates formats the location as "lat, lon".
func (l Location) Coordinates() string {
	return fmt.Sprintf("%v, %v", l.Latitude, l.Longitude)
}

// AttendanceRecord is append-only. Only IsSynced changes after creation.
type AttendanceRecord struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	PunchType    PunchType `json:"punchType"`
	Timestamp    time.Time `json:"timestamp"`
	Location     Location  `json:"location"`
	PhotoURI     string    `json:"photoUri,omitempty"`
	IsSynced     bool      `json:"isSynced"`
}
