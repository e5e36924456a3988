package auth

const (
	ScopeOpenID           = "openid"
	ScopeProfile          = "profile"
	ScopeEmail            = "email"
	ScopeApontamentoRead  = "apontamento:read"
	ScopeApontamentoWrite = "apontamento:write"
)

// LoginScopes are requested by the browser login flow. The email claim is
// what maps a token to an employee.
var LoginScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail}

// AllScopes defines the full set of scopes used by the Swagger UI / mobile client
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
	ScopeApontamentoRead,
	ScopeApontamentoWrite,
}
