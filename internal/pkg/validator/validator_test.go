package validator

import (
	"errors"
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B",
	}
	invalid := []string{
		"123e4567-e89b-12d3-a456-426614174000", // not v7
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"",
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		if _, ok := IsValidDate(s); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDate(s); ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsValidDateTime(t *testing.T) {
	valid := []string{"2024-01-15T10:30:00Z", "2024-01-15T10:30:00+07:00", "2024-01-15T10:30:00.123Z"}
	invalid := []string{"2024-01-15 10:30:00", "2024-01-15", ""}
	for _, s := range valid {
		if _, ok := IsValidDateTime(s); !ok {
			t.Errorf("IsValidDateTime(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := IsValidDateTime(s); ok {
			t.Errorf("IsValidDateTime(%q) = true, want false", s)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "start_date", Message: "invalid"},
		{Field: "leave_type", Message: "required"},
	}
	got := errs.Error()
	want := "start_date: invalid; leave_type: required"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_Err(t *testing.T) {
	var errs ValidationErrors
	if errs.Err() != nil {
		t.Errorf("empty ValidationErrors.Err() = %v, want nil", errs.Err())
	}
	errs.Add("reason", "reason is required")
	if errs.Err() == nil {
		t.Error("ValidationErrors.Err() = nil, want error")
	}
}

type sampleRequest struct {
	Status   string  `json:"status" validate:"required,oneof=approved rejected"`
	ID       string  `json:"attendance_id" validate:"required,uuid7"`
	Latitude float64 `json:"latitude" validate:"latitude"`
}

func TestValidateStruct(t *testing.T) {
	ok := sampleRequest{Status: "approved", ID: "0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", Latitude: -6.2}
	if err := ValidateStruct(ok); err != nil {
		t.Fatalf("ValidateStruct(valid) = %v, want nil", err)
	}

	bad := sampleRequest{Status: "done", ID: "nope", Latitude: 120}
	err := ValidateStruct(bad)

	var errs ValidationErrors
	if !errors.As(err, &errs) {
		t.Fatalf("ValidateStruct(invalid) = %T, want ValidationErrors", err)
	}
	got := errs.ToMap()
	for _, field := range []string{"status", "attendance_id", "latitude"} {
		if _, ok := got[field]; !ok {
			t.Errorf("ValidateStruct(invalid) missing field %q in %v", field, got)
		}
	}
	if got["status"] != "status must be one of: approved, rejected" {
		t.Errorf("status message = %q", got["status"])
	}
}
