package interop

import (
	"errors"
	"fmt"
)

// Result is an XrResult code. Failing results implement error so they can
// travel through Go call paths and come out unchanged at the boundary.
type Result int32

// Result codes used by the layer.
const (
	ResultSuccess                          Result = 0
	ResultErrorValidationFailure           Result = -1
	ResultErrorRuntimeFailure              Result = -2
	ResultErrorOutOfMemory                 Result = -3
	ResultErrorInitializationFailed        Result = -6
	ResultErrorFunctionUnsupported         Result = -7
	ResultErrorExtensionNotPresent         Result = -9
	ResultErrorSizeInsufficient            Result = -11
	ResultErrorHandleInvalid               Result = -12
	ResultErrorSystemInvalid               Result = -18
	ResultErrorFormFactorUnsupported       Result = -34
	ResultErrorGraphicsDeviceInvalid       Result = -38
	ResultErrorGraphicsRequirementsMissing Result = -50
)

var resultNames = map[Result]string{
	ResultSuccess:                          "XR_SUCCESS",
	ResultErrorValidationFailure:           "XR_ERROR_VALIDATION_FAILURE",
	ResultErrorRuntimeFailure:              "XR_ERROR_RUNTIME_FAILURE",
	ResultErrorOutOfMemory:                 "XR_ERROR_OUT_OF_MEMORY",
	ResultErrorInitializationFailed:        "XR_ERROR_INITIALIZATION_FAILED",
	ResultErrorFunctionUnsupported:         "XR_ERROR_FUNCTION_UNSUPPORTED",
	ResultErrorExtensionNotPresent:         "XR_ERROR_EXTENSION_NOT_PRESENT",
	ResultErrorSizeInsufficient:            "XR_ERROR_SIZE_INSUFFICIENT",
	ResultErrorHandleInvalid:               "XR_ERROR_HANDLE_INVALID",
	ResultErrorSystemInvalid:               "XR_ERROR_SYSTEM_INVALID",
	ResultErrorFormFactorUnsupported:       "XR_ERROR_FORM_FACTOR_UNSUPPORTED",
	ResultErrorGraphicsDeviceInvalid:       "XR_ERROR_GRAPHICS_DEVICE_INVALID",
	ResultErrorGraphicsRequirementsMissing: "XR_ERROR_GRAPHICS_REQUIREMENTS_CALL_MISSING",
}

// Succeeded reports whether r is a success code (XR_SUCCEEDED).
func (r Result) Succeeded() bool { return r >= 0 }

// Failed reports whether r is an error code (XR_FAILED).
func (r Result) Failed() bool { return r < 0 }

// String returns the XrResult name.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("XrResult(%d)", int32(r))
}

// Error implements error.
func (r Result) Error() string { return "xr: " + r.String() }

// Err returns r as an error, or nil when r succeeded.
func (r Result) Err() error {
	if r.Succeeded() {
		return nil
	}
	return r
}

// ResultOf converts err into the code reported to the caller. A Result in
// the chain of err is returned unchanged; any other error becomes
// ResultErrorRuntimeFailure.
func ResultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return ResultErrorRuntimeFailure
}
