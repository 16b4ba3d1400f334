package core

// EndpointProvider provides a list of endpoints to register dynamically
type EndpointProvider interface {
	GetEndpoints() []Endpoint
}

type Endpoint struct {
	Path     string
	Method   string
	Handler  func(ctx *RequestContext) error
	Metadata EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
	// Protected endpoints require a resolved session before the handler runs.
	Protected   bool
	RequestBody interface{} // for validation
	Responses   map[int]interface{}
}

type RequestContext struct {
	// Framework-agnostic context
	Request  interface{} // could be *http.Request, fiber.Ctx, etc
	Auth     AuthHandler
	Identity *Identity
	Session  *Session
}

// ErrorResponse represents an error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
