package auth

import (
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	MerchantID *uuid.UUID
	Role       enums.UserRole
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. MerchantID is
// only present for merchant accounts and scopes their realtime room.
type AccessTokenClaims struct {
	UserID     uuid.UUID      `json:"user_id"`
	MerchantID *uuid.UUID     `json:"merchant_id,omitempty"`
	Role       enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
