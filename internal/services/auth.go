package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Juramirezlop/asamblea-voting-app/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
}

// TokenClaims is the validated identity extracted from a bearer token.
// Subject is the admin username or the voter's participant code.
type TokenClaims struct {
	Subject string
	Role    string
}

func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

func (s *AuthService) RegisterUser(username, password, role string) error {
	if role != models.RoleAdmin && role != models.RoleVoter {
		return fmt.Errorf("%w: role must be admin or voter", ErrInvalid)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: username already exists", ErrConflict)
		}
		return err
	}
	return nil
}

func (s *AuthService) LoginAdmin(username, password string) (string, error) {
	var user models.User
	if err := s.db.Where("username = ? AND role = ?", username, models.RoleAdmin).
		First(&user).Error; err != nil {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	return s.GenerateToken(user.Username, models.RoleAdmin)
}

// LoginVoter issues a voter token for a participant code. Attendance
// must already be registered; login never mutates the roster.
func (s *AuthService) LoginVoter(code string) (string, *models.Participant, error) {
	var participant models.Participant
	if err := s.db.First(&participant, "code = ?", code).Error; err != nil {
		return "", nil, fmt.Errorf("%w: participant code not found", ErrNotFound)
	}

	if !participant.Present {
		return "", nil, fmt.Errorf("%w: attendance not registered, register attendance first", ErrConflict)
	}

	token, err := s.GenerateToken(participant.Code, models.RoleVoter)
	if err != nil {
		return "", nil, err
	}
	return token, &participant, nil
}

func (s *AuthService) GenerateToken(subject, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims", ErrUnauthorized)
	}

	subject, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if subject == "" || role == "" {
		return nil, fmt.Errorf("%w: missing subject or role in token", ErrUnauthorized)
	}

	return &TokenClaims{Subject: subject, Role: role}, nil
}

// EnsureDefaultAdmin creates the bootstrap admin account from the
// environment if configured and not present yet.
func (s *AuthService) EnsureDefaultAdmin(username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var existing models.User
	if err := s.db.First(&existing, "username = ?", username).Error; err == nil {
		return nil
	}

	return s.RegisterUser(username, password, models.RoleAdmin)
}
