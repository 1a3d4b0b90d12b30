package model

type Session struct {
	Token      string `json:"token"`
	EmployeeID string `json:"employeeId"`
}
