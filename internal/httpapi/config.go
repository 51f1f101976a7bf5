package httpapi

// maxBodyBytes controls the maximum allowed request body size for small JSON
// endpoints (generate, load, unload).
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// classifyMaxBodyBytes bounds classify payloads, which may inline a
// base64-encoded image. Default 16 MiB.
var classifyMaxBodyBytes int64 = 16 << 20

// SetClassifyMaxBodyBytes configures the classify request body limit.
func SetClassifyMaxBodyBytes(n int64) {
	if n <= 0 {
		classifyMaxBodyBytes = 16 << 20
		return
	}
	classifyMaxBodyBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
