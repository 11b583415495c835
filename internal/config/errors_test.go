package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		err  *ValidationError
		want string
	}{
		{&ValidationError{Message: "no macros defined"}, "no macros defined"},
		{&ValidationError{Path: "macros.j.mode", Message: "bad mode"}, "macros.j.mode: bad mode"},
		{&ValidationError{Path: "timing.press", Message: "must be >= 0", Value: -1}, "timing.press: must be >= 0 (got -1)"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.HasErrors() || errs.AsError() != nil {
		t.Fatal("empty ValidationErrors should not be an error")
	}

	errs.Add("macros.j", "must be a table")
	if got := errs.Error(); got != "macros.j: must be a table" {
		t.Errorf("single Error() = %q", got)
	}

	errs.AddWithValue("macros.j.delays[1]", "must be >= 0", -0.5)
	errs.Addf("macros.jk", "has %d entries", 3)
	errs.Add("macros.k.keys", "must not be empty")

	if errs.Len() != 4 {
		t.Errorf("Len() = %d, want 4", errs.Len())
	}
	if !strings.HasPrefix(errs.Error(), "4 validation errors:") {
		t.Errorf("Error() = %q", errs.Error())
	}
	if got := len(errs.ErrorsForPath("macros.j")); got != 1 {
		t.Errorf("ErrorsForPath(macros.j) = %d, want 1", got)
	}
	// macros.jk is a sibling, not a child.
	if got := len(errs.ErrorsUnderPath("macros.j")); got != 2 {
		t.Errorf("ErrorsUnderPath(macros.j) = %d, want 2", got)
	}
}

func TestPathHelpers(t *testing.T) {
	if got := Sub("", "macros"); got != "macros" {
		t.Errorf("Sub = %q", got)
	}
	if got := Index(Sub("macros.j", "holds"), 2); got != "macros.j.holds[2]" {
		t.Errorf("Index = %q", got)
	}
}
