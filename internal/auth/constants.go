package auth

// HTTP header constants for authentication.
const (
	// HeaderAuthorization is the Authorization header name.
	HeaderAuthorization = "Authorization"

	// HeaderWWWAuthenticate is the WWW-Authenticate header name.
	HeaderWWWAuthenticate = "WWW-Authenticate"

	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"
)

// MetadataAuthorization is the gRPC metadata key carrying credentials.
const MetadataAuthorization = "authorization"

// ContentTypeJSON is the JSON content type.
const ContentTypeJSON = "application/json"

// Authentication scheme constants.
const (
	// SchemeBasic is the name of the Basic scheme stamped on tickets.
	SchemeBasic = "Basic"

	// AuthSchemeBasic is the Basic scheme prefix of an Authorization value.
	AuthSchemeBasic = SchemeBasic + " "
)
