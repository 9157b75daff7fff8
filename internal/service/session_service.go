package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/trust-erp-api/internal/models"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

type revocationReader interface {
	RevokedAfter(ctx context.Context, userID string) (time.Time, error)
}

// SessionConfig defines how access tokens are signed and how long they live.
type SessionConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// SessionService turns bearer tokens into actors. Role and active flag always come from storage,
// so a role change or deactivation takes effect on the next request.
type SessionService struct {
	users       userReader
	revocations revocationReader
	logger      *zap.Logger
	config      SessionConfig
	now         func() time.Time
}

// NewSessionService constructs a SessionService. revocations may be nil.
func NewSessionService(users userReader, revocations revocationReader, logger *zap.Logger, config SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{users: users, revocations: revocations, logger: logger, config: config, now: time.Now}
}

// Issue signs an access token for user.
func (s *SessionService) Issue(user *models.User) (*models.IssuedSession, error) {
	now := s.now().UTC()
	claims := models.SessionClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign access token")
	}
	return &models.IssuedSession{AccessToken: signed, ExpiresIn: int64(s.config.Expiry.Seconds())}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *SessionService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthenticated.Code, appErrors.ErrUnauthenticated.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid token claims")
	}
	return claims, nil
}

// Resolve validates token and loads the current actor. Inactive accounts still resolve so that
// the policy engine can deny them.
func (s *SessionService) Resolve(ctx context.Context, token string) (models.Actor, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return models.Actor{}, err
	}
	if err := s.checkRevocation(ctx, claims); err != nil {
		return models.Actor{}, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Actor{}, appErrors.Clone(appErrors.ErrUnauthenticated, "account no longer exists")
		}
		return models.Actor{}, appErrors.Internal(err, "failed to load session user")
	}
	return user.Actor(), nil
}

func (s *SessionService) checkRevocation(ctx context.Context, claims *models.SessionClaims) error {
	if s.revocations == nil {
		return nil
	}
	revokedAfter, err := s.revocations.RevokedAfter(ctx, claims.UserID)
	if err != nil {
		s.logger.Error("session revocation lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return appErrors.Internal(err, "failed to verify session")
	}
	if revokedAfter.IsZero() {
		return nil
	}
	if claims.IssuedAt == nil || !claims.IssuedAt.Time.After(revokedAfter) {
		return appErrors.Clone(appErrors.ErrUnauthenticated, "session has been revoked")
	}
	return nil
}
