package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// AccessTokenQueryParam carries the access token for websocket upgrades,
// where browsers cannot set custom headers.
const AccessTokenQueryParam = "access_token"
