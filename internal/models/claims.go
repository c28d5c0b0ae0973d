package models

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims issued to dashboard operators.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
