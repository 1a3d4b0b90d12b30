package utils

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	csvData := `id,phoneNumber,name,pin
1,9876543210,Ramesh,1234
2,9123456780,Sita,4321`

	reader := strings.NewReader(csvData)

	got, err := ParseCSV(reader)
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}

	want := [][]string{
		{"id", "phoneNumber", "name", "pin"},
		{"1", "9876543210", "Ramesh", "1234"},
		{"2", "9123456780", "Sita", "4321"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCSV returned %+v, want %+v", got, want)
	}
}

func TestParseCSVRaggedRow(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("id,name\n1"))
	if err == nil {
		t.Fatal("expected error for row with missing field")
	}
}
