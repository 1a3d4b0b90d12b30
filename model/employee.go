package model

type Employee struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
	Pin         string `json:"pin"`
}

// Public returns a copy without the PIN, safe to hand to API clients.
func (e Employee) Public() Employee {
	e.Pin = ""
	return e
}
