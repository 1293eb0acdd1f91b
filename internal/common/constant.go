// Package common contains constants, sentinel errors and small helpers shared
// by the MindKeeper client and the Data API server.
package common

// Header names understood by the Data API. A request authenticates with
// either a static API key or a signed JWT.
const (
	APIKeyHeaderName   = "api-key"
	JWTTokenHeaderName = "jwtTokenString"
)
