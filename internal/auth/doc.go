// Package auth provides optional bearer-token authentication for the
// relay endpoint.
//
// # Authentication
//
// Clients authenticate with JWT tokens signed with HS256 using the
// configured jwt_secret. Tokens carry the caller identity in the
// standard "sub" claim and an "exp" expiration claim.
//
// Auth is opt-in: when no secret is configured the middleware is not
// installed and the relay accepts unauthenticated requests.
//
// # Usage
//
//	verifier := auth.NewJWTVerifier([]byte(secret))
//	handler = auth.HTTPAuthMiddleware(verifier)(handler)
//
// On success the authenticated subject is available from the request
// context via SubjectFromContext.
package auth
