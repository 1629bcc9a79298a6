// Package voice issues access tokens for the per-room voice channel.
// Tokens follow the Vivox access-token layout: HS256, short-lived, with the
// action and the from/to URIs in the claims.
package voice

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

// Token actions.
const (
	ActionLogin = "login"
	ActionJoin  = "join"
)

const tokenTTL = time.Hour

// Service signs voice tokens. Zero-config deployments run without voice;
// Enabled reports whether signing is possible.
type Service struct {
	secret string
	issuer string
	domain string
	now    func() time.Time
}

// NewService builds a token service from the configured credentials.
func NewService(secret, issuer, domain string) *Service {
	return &Service{secret: secret, issuer: issuer, domain: domain, now: time.Now}
}

// Enabled reports whether the service holds complete signing credentials.
func (s *Service) Enabled() bool {
	return s != nil && s.secret != "" && s.issuer != "" && s.domain != ""
}

// GenerateToken signs a token for the player. Login tokens address the
// player's own URI; join tokens address the room's voice channel and
// require a room code.
func (s *Service) GenerateToken(playerID, action, roomID string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("voice service is not configured")
	}
	if playerID == "" {
		return "", fmt.Errorf("player id is required")
	}

	userURI := s.userURI(playerID)
	targetURI, err := s.targetURI(action, roomID, userURI)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": playerID,
		"exp": s.now().Add(tokenTTL).Unix(),
		"vxa": action,
		"vxi": uuid.NewString(),
		"f":   userURI,
		"t":   targetURI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *Service) userURI(playerID string) string {
	return "sip:." + s.issuer + "." + playerID + ".@" + s.domain
}

func (s *Service) channelURI(roomID string) string {
	return "sip:confctl-g-room-" + roomID + "@" + s.domain
}

func (s *Service) targetURI(action, roomID, userURI string) (string, error) {
	switch action {
	case ActionLogin:
		return userURI, nil
	case ActionJoin:
		if roomID == "" {
			return "", fmt.Errorf("room id is required for join tokens")
		}
		return s.channelURI(roomID), nil
	default:
		return "", fmt.Errorf("unsupported voice action: %s", action)
	}
}
