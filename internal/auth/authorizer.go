package auth

import "errors"

// Authorizer answers whether a token may run a command.
type Authorizer struct {
	secret []byte
	policy Policy
}

// NewAuthorizer constructs an authorizer.
func NewAuthorizer(secret []byte, policy Policy) (*Authorizer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}
	if policy.Commands == nil {
		policy = NewDefaultPolicy(nil)
	}
	return &Authorizer{secret: secret, policy: policy}, nil
}

// IsUserAllowed validates token and checks the caller's role against command.
// Unknown commands are rejected.
func (a *Authorizer) IsUserAllowed(token, command string) (Identity, error) {
	if a == nil {
		return Identity{}, ErrUnauthorized
	}
	claims, err := ParseJWT(token, a.secret)
	if err != nil {
		return Identity{}, err
	}
	role, _ := NormalizeRole(claims.Role)
	required, ok := a.policy.RequiredRole(command)
	if !ok || !RoleAtLeast(role, required) {
		return Identity{}, ErrForbidden
	}
	return Identity{UserID: claims.Subject, Role: role}, nil
}
