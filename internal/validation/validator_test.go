// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/staynav/internal/models"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	// Test that GetValidator returns the same instance
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}

	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

// TestStruct for basic validation tests
type TestStruct struct {
	Name    string `validate:"required,min=1,max=100"`
	Age     int    `validate:"min=0,max=150"`
	Email   string `validate:"omitempty,email"`
	Limit   int    `validate:"min=1,max=1000"`
	Offset  int    `validate:"min=0,max=1000000"`
	Enabled bool
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name   string
		input  TestStruct
		errMsg string
	}{
		{
			name: "all valid fields",
			input: TestStruct{
				Name:   "John Doe",
				Age:    30,
				Email:  "john@example.com",
				Limit:  100,
				Offset: 0,
			},
		},
		{
			name: "minimum values",
			input: TestStruct{
				Name:   "A",
				Age:    0,
				Email:  "",
				Limit:  1,
				Offset: 0,
			},
		},
		{
			name: "maximum values",
			input: TestStruct{
				Name:   "A",
				Age:    150,
				Email:  "",
				Limit:  1000,
				Offset: 1000000,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err != nil {
				t.Errorf("ValidateStruct() returned unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     TestStruct
		wantField string
		wantTag   string
	}{
		{
			name: "missing required name",
			input: TestStruct{
				Name:  "",
				Limit: 100,
			},
			wantField: "Name",
			wantTag:   "required",
		},
		{
			name: "age too high",
			input: TestStruct{
				Name: "John",
				Age:  200,
			},
			wantField: "Age",
			wantTag:   "max",
		},
		{
			name: "invalid email",
			input: TestStruct{
				Name:  "John",
				Email: "not-an-email",
			},
			wantField: "Email",
			wantTag:   "email",
		},
		{
			name: "limit too low",
			input: TestStruct{
				Name:  "John",
				Limit: 0,
			},
			wantField: "Limit",
			wantTag:   "min",
		},
		{
			name: "limit too high",
			input: TestStruct{
				Name:  "John",
				Limit: 2000,
			},
			wantField: "Limit",
			wantTag:   "max",
		},
		{
			name: "negative offset",
			input: TestStruct{
				Name:   "John",
				Limit:  100,
				Offset: -1,
			},
			wantField: "Offset",
			wantTag:   "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			errs := err.Errors()
			if len(errs) == 0 {
				t.Fatal("ValidationErrors should contain at least one error")
			}

			found := false
			for _, e := range errs {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}

			if !found {
				t.Errorf("Expected error on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, errs)
			}
		})
	}
}

// ===================================================================================================
// ToAPIError Tests
// ===================================================================================================

func TestToAPIError_SingleError(t *testing.T) {
	input := TestStruct{
		Name:  "", // required field missing
		Limit: 100,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	apiErr := err.ToAPIError()

	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %s", apiErr.Code)
	}

	if apiErr.Message == "" {
		t.Error("Expected non-empty message")
	}

	// Should contain field name in details
	if apiErr.Details == nil {
		t.Error("Expected details to be set")
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	input := TestStruct{
		Name:   "", // required field missing
		Age:    200,
		Limit:  0, // below minimum
		Offset: -1,
	}

	err := ValidateStruct(&input)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	apiErr := err.ToAPIError()

	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %s", apiErr.Code)
	}

	// Details should contain field information
	if apiErr.Details == nil {
		t.Error("Expected details to contain field information")
	}

	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("Expected details to contain 'fields' key")
	}
}


// ===================================================================================================
// Search Intent Rules
// ===================================================================================================

func validIntent() models.SearchIntent {
	return models.SearchIntent{
		City:     "Moscow",
		Center:   &models.GeoPoint{Lat: 55.75, Lng: 37.61},
		RadiusKm: 10,
		CheckIn:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		Guests:   2,
		Budget:   &models.BudgetRange{Min: 1000, Max: 3000},
		Purpose:  models.PurposeLeisure,
		Priorities: models.PriorityWeights{
			Quiet: 0.5, Price: 1,
		},
	}
}

func TestSearchIntent_Valid(t *testing.T) {
	t.Parallel()

	intent := validIntent()
	if err := ValidateStruct(&intent); err != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", err)
	}

	noDates := validIntent()
	noDates.CheckIn, noDates.CheckOut = time.Time{}, time.Time{}
	if err := ValidateStruct(&noDates); err != nil {
		t.Fatalf("intent without a stay window should be valid: %v", err)
	}
}

func TestSearchIntent_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(i *models.SearchIntent)
		wantField string
		wantTag   string
	}{
		{
			name:      "checkout before checkin",
			mutate:    func(i *models.SearchIntent) { i.CheckOut = i.CheckIn.Add(-24 * time.Hour) },
			wantField: "check_out",
			wantTag:   "after_check_in",
		},
		{
			name:      "checkout equals checkin",
			mutate:    func(i *models.SearchIntent) { i.CheckOut = i.CheckIn },
			wantField: "check_out",
			wantTag:   "after_check_in",
		},
		{
			name:      "only checkin",
			mutate:    func(i *models.SearchIntent) { i.CheckOut = time.Time{} },
			wantField: "check_out",
			wantTag:   "date_pair",
		},
		{
			name:      "zero guests",
			mutate:    func(i *models.SearchIntent) { i.Guests = 0 },
			wantField: "guests",
			wantTag:   "gte",
		},
		{
			name:      "inverted budget",
			mutate:    func(i *models.SearchIntent) { i.Budget = &models.BudgetRange{Min: 3000, Max: 1000} },
			wantField: "max",
			wantTag:   "budget_order",
		},
		{
			name:      "priority above one",
			mutate:    func(i *models.SearchIntent) { i.Priorities.Comfort = 1.5 },
			wantField: "comfort",
			wantTag:   "lte",
		},
		{
			name:      "latitude out of range",
			mutate:    func(i *models.SearchIntent) { i.Center = &models.GeoPoint{Lat: 91, Lng: 0} },
			wantField: "lat",
			wantTag:   "lte",
		},
		{
			name:      "unknown purpose",
			mutate:    func(i *models.SearchIntent) { i.Purpose = "tourism" },
			wantField: "purpose",
			wantTag:   "oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			intent := validIntent()
			tt.mutate(&intent)

			err := ValidateStruct(&intent)
			if err == nil {
				t.Fatal("ValidateStruct() should have returned an error")
			}

			found := false
			for _, e := range err.Errors() {
				if e.Field() == tt.wantField && e.Tag() == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error on %s/%s, got: %v", tt.wantField, tt.wantTag, err)
			}
		})
	}
}

func TestHousingTypeTag(t *testing.T) {
	t.Parallel()

	type req struct {
		Type string `json:"type" validate:"housing_type"`
	}

	if err := ValidateStruct(&req{Type: "loft"}); err != nil {
		t.Errorf("loft should be valid: %v", err)
	}

	err := ValidateStruct(&req{Type: "castle"})
	if err == nil {
		t.Fatal("castle should be rejected")
	}
	if !strings.Contains(err.Error(), "type must be one of") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestNewRequestValidationError(t *testing.T) {
	t.Parallel()

	err := NewRequestValidationError("feedback", "oneof", "feedback must be liked or disliked")
	apiErr := err.ToAPIError()

	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "feedback" {
		t.Errorf("Details[field] = %v, want feedback", apiErr.Details["field"])
	}
}
