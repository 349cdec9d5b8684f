package errorsx

// Kind is a short machine-readable failure category.
type Kind string

const (
	KindUnknown Kind = "unknown"

	KindDuplicateTool      Kind = "duplicate_tool"
	KindUnknownTool        Kind = "unknown_tool"
	KindSchemaValidation   Kind = "schema_validation"
	KindToolNotAllowed     Kind = "tool_not_allowed"
	KindMalformedToolInput Kind = "malformed_tool_input"
	KindStepLimitExceeded  Kind = "step_limit_exceeded"
	KindRouting            Kind = "routing"
	KindExternalService    Kind = "external_service"
)
