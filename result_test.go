package interop

import (
	"errors"
	"fmt"
	"testing"
)

func TestResultString(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{ResultSuccess, "XR_SUCCESS"},
		{ResultErrorRuntimeFailure, "XR_ERROR_RUNTIME_FAILURE"},
		{ResultErrorInitializationFailed, "XR_ERROR_INITIALIZATION_FAILED"},
		{ResultErrorGraphicsRequirementsMissing, "XR_ERROR_GRAPHICS_REQUIREMENTS_CALL_MISSING"},
		{Result(-999), "XrResult(-999)"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("Result(%d).String() = %q, want %q", int32(tt.r), got, tt.want)
		}
	}
}

func TestResultErr(t *testing.T) {
	if err := ResultSuccess.Err(); err != nil {
		t.Errorf("ResultSuccess.Err() = %v, want nil", err)
	}
	// Qualified successes are not errors.
	if err := Result(3).Err(); err != nil {
		t.Errorf("Result(3).Err() = %v, want nil", err)
	}
	err := ResultErrorHandleInvalid.Err()
	if err == nil {
		t.Fatal("ResultErrorHandleInvalid.Err() = nil")
	}
	if err.Error() != "xr: XR_ERROR_HANDLE_INVALID" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestResultOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Result
	}{
		{"nil", nil, ResultSuccess},
		{"result", ResultErrorSystemInvalid, ResultErrorSystemInvalid},
		{"wrapped result", fmt.Errorf("xrGetSystem: %w", ResultErrorFormFactorUnsupported), ResultErrorFormFactorUnsupported},
		{"native error", errors.New("device removed"), ResultErrorRuntimeFailure},
		{"wrapped native error", fmt.Errorf("open: %w", ErrAdapterNotFound), ResultErrorRuntimeFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResultOf(tt.err); got != tt.want {
				t.Errorf("ResultOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	v := MakeVersion(1, 2, 3)
	if v.Major() != 1 || v.Minor() != 2 || v.Patch() != 3 {
		t.Errorf("MakeVersion(1, 2, 3) = %d.%d.%d", v.Major(), v.Minor(), v.Patch())
	}
	if v.String() != "1.2.3" {
		t.Errorf("String() = %q, want %q", v.String(), "1.2.3")
	}
}
