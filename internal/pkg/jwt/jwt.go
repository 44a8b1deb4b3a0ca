package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrMissingClaims = errors.New("authentication claims not found")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

type Service interface {
	GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken mints a token carrying the actor claims. Tokens are
// normally issued by the auth service; this is used by tooling and tests.
func (j *JWTService) GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":     actor.UserID,
		"employee_id": returnValueOrNil(actor.EmployeeID),
		"company_id":  returnValueOrNil(actor.CompanyID),
		"role":        string(actor.Role),
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func returnValueOrNil(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// ActorFromContext reads the verified token claims placed in ctx by
// jwtauth.Verifier.
func ActorFromContext(ctx context.Context) (user.Actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if claims == nil {
		return user.Actor{}, ErrMissingClaims
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return user.Actor{}, ErrMissingClaims
	}
	employeeID, _ := claims["employee_id"].(string)
	companyID, _ := claims["company_id"].(string)
	role, _ := claims["role"].(string)

	return user.Actor{
		UserID:     userID,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Role:       user.Role(role),
	}, nil
}

// NewContextWithActor stores an unsigned token for actor in ctx the same way
// jwtauth.Verifier does for a verified one.
func NewContextWithActor(ctx context.Context, actor user.Actor) context.Context {
	token := jwt.New()
	_ = token.Set("user_id", actor.UserID)
	if actor.EmployeeID != "" {
		_ = token.Set("employee_id", actor.EmployeeID)
	}
	if actor.CompanyID != "" {
		_ = token.Set("company_id", actor.CompanyID)
	}
	_ = token.Set("role", string(actor.Role))
	_ = token.Set("type", "access")
	return jwtauth.NewContext(ctx, token, nil)
}
