package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for a chat session.
// It includes standard claims required by the JWT specification and the denormalized
// profile fields the relay needs to identify a user without a directory lookup.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// Email is the stable identity key of the signed-in user. Presence entries
	// and message records are keyed by it.
	Email string `json:"email"`

	// Name is the display name supplied by the identity provider at sign-in.
	Name string `json:"name"`

	// Avatar is the profile photo URL supplied by the identity provider.
	Avatar string `json:"avatar,omitempty"`
}
