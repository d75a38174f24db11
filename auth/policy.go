package auth

// Permission is a named capability checked before a handler runs.
type Permission string

const (
	PermView   Permission = "view"
	PermSecret Permission = "secret"
)

// Principal is a class of callers that permissions are granted to.
type Principal string

const (
	Everyone      Principal = "system.Everyone"
	Authenticated Principal = "system.Authenticated"
)

// ACE is one allow entry of an access control list.
type ACE struct {
	Principal  Principal
	Permission Permission
}

type Policy struct {
	acl []ACE
}

func NewPolicy(acl ...ACE) Policy {
	return Policy{acl: acl}
}

// DefaultPolicy lets everyone view and authenticated callers see secrets.
func DefaultPolicy() Policy {
	return NewPolicy(
		ACE{Principal: Everyone, Permission: PermView},
		ACE{Principal: Authenticated, Permission: PermSecret},
	)
}

func Principals(id Identity) []Principal {
	if id.Authenticated() {
		return []Principal{Everyone, Authenticated}
	}
	return []Principal{Everyone}
}

func (p Policy) Permits(id Identity, perm Permission) bool {
	for _, principal := range Principals(id) {
		for _, ace := range p.acl {
			if ace.Principal == principal && ace.Permission == perm {
				return true
			}
		}
	}
	return false
}
