package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims is the authenticated identity attached to each request by the
// auth middleware. The wallet core trusts UserID as given; token issuance
// lives in the platform's identity service.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
