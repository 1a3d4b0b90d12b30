package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axiapac.com/punchclock/model"
)

func TestReadEmployees(t *testing.T) {
	employees, err := readEmployees(strings.NewReader("name,id,pin,phoneNumber\nRamesh,1,1234,9876543210\n Sita ,2,4321,9123456780\n"))
	require.NoError(t, err)
	assert.Equal(t, []model.Employee{
		{ID: "1", PhoneNumber: "9876543210", Name: "Ramesh", Pin: "1234"},
		{ID: "2", PhoneNumber: "9123456780", Name: "Sita", Pin: "4321"},
	}, employees)
}

func TestReadEmployeesNeedsColumns(t *testing.T) {
	_, err := readEmployees(strings.NewReader("id,name\n1,Ramesh\n"))
	assert.ErrorContains(t, err, "phoneNumber")

	_, err = readEmployees(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadEmployeesChecksPin(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"short pin", "1,9876543210,Ramesh,1"},
		{"letters in pin", "1,9876543210,Ramesh,12ab"},
		{"letters in phone", "1,98765x3210,Ramesh,1234"},
		{"no name", "1,9876543210,,1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readEmployees(strings.NewReader("id,phoneNumber,name,pin\n" + tt.row + "\n"))
			assert.ErrorContains(t, err, "line 2")
		})
	}
}

func TestParseDay(t *testing.T) {
	today := time.Now().UTC()

	d, err := parseDay("yesterday", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, today.AddDate(0, 0, -1).Format("2006-01-02"), d.Format("2006-01-02"))

	d, err = parseDay("2024-03-09", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 9, d.Day())

	_, err = parseDay("tomorrow", time.UTC)
	assert.Error(t, err)
}

func TestClearNeedsConfirmation(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"clear"})
	assert.ErrorContains(t, cmd.Execute(), "--yes")
}
