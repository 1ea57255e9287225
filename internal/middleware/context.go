package middleware

// ContextKeyRequestID stores the request identifier in the echo context.
const ContextKeyRequestID = "request_id"

// Template locals populated by Locals.
const (
	LocalUser            = "user"
	LocalIsAuthenticated = "isAuthenticated"
	LocalPath            = "path"
	LocalRequestID       = "requestID"
)
