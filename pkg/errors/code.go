package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10099: System & Common errors
// 10100-10199: Request parsing errors
// 10200-10299: Authentication errors
// 10300-10399: Validation errors
// 10400-10499: Configuration composition errors
// 10500-10599: Simulation launch errors

const (
	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	NotFound            ErrorCode = 10002
	ServiceUnavailable  ErrorCode = 10003
	Timeout             ErrorCode = 10004

	// Parse errors (10100-10199)
	ParseFailed  ErrorCode = 10100
	EmptyBody    ErrorCode = 10101
	InvalidJSON  ErrorCode = 10102
	BodyTooLarge ErrorCode = 10103

	// Authentication errors (10200-10299)
	Unauthorized ErrorCode = 10200
	TokenMissing ErrorCode = 10201
	TokenInvalid ErrorCode = 10202

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	UnknownStation     ErrorCode = 10303
	StationOccupied    ErrorCode = 10304

	// Compose errors (10400-10499)
	ComposeFailed      ErrorCode = 10400
	StartMessageFailed ErrorCode = 10401
	ManifestFailed     ErrorCode = 10402
	EnvironmentFailed  ErrorCode = 10403
	FolderNotWritable  ErrorCode = 10404

	// Launch errors (10500-10599)
	LaunchFailed        ErrorCode = 10500
	RuntimeUnavailable  ErrorCode = 10501
	ImageNotFound       ErrorCode = 10502
	NoFreeSimulationIdx ErrorCode = 10503
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	ParseFailed:  "Could not parse JSON contents",
	EmptyBody:    "No content found in the request",
	InvalidJSON:  "Request body is not valid JSON",
	BodyTooLarge: "Request body is too large",

	Unauthorized: "Unauthorized access",
	TokenMissing: "Missing private token",
	TokenInvalid: "Invalid private token",

	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",
	InvalidValue:       "Invalid value",
	UnknownStation:     "User references an unknown station",
	StationOccupied:    "Multiple users cannot be connected to the same station at the same time",

	ComposeFailed:      "Failed to compose simulation configuration",
	StartMessageFailed: "Failed to write the simulation start message",
	ManifestFailed:     "Failed to process component manifests",
	EnvironmentFailed:  "Failed to build the simulation environment",
	FolderNotWritable:  "Configuration folder is not writable",

	LaunchFailed:        "Could not start a new platform manager container",
	RuntimeUnavailable:  "Container runtime is unavailable",
	ImageNotFound:       "Platform manager image not found",
	NoFreeSimulationIdx: "No free simulation indexes, wait until a simulation run has finished",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c >= 10100 && c < 10200:
		return 400
	case c >= 10200 && c < 10300:
		return 401
	case c == NotFound:
		return 404
	case c >= 10300 && c < 10400:
		return 422
	case c == ServiceUnavailable:
		return 503
	default:
		return 500
	}
}
