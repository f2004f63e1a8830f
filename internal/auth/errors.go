package auth

import "fmt"

// FailureMessage is the only text a rejected caller ever sees.
const FailureMessage = "authentication failed"

// Challenge returns the WWW-Authenticate value for the Basic scheme.
func Challenge(realm string) string {
	return fmt.Sprintf("%s realm=%q, charset=\"UTF-8\"", SchemeBasic, realm)
}
