// StayNav - Rental Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/staynav

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps a thread-safe singleton validator with StayNav's rules and
// user-friendly error messages. Field names in errors are the JSON names the
// client sent.
//
// # Domain Rules
//
// Registered in addition to the built-in tags:
//   - models.SearchIntent: a stay window needs both ends, and check_out must be after check_in
//   - models.BudgetRange: max must not be less than min
//   - housing_type: the value must parse as a models.HousingType
//
// # Usage
//
//	if verr := validation.ValidateStruct(&intent); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// # Error Format
//
// ToAPIError produces the VALIDATION_ERROR payload used across the API:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "check_out must be after check_in",
//	    "details": {"field": "check_out", "tag": "after_check_in"}
//	}
package validation
