// Package auth issues and verifies bearer tokens and manages accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blackline/apperr"
	"blackline/models"
	"blackline/store"
	"blackline/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Claims carried by every token. Only userId is trusted; role is re-read
// from the user store on each request.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type Service struct {
	Users  store.UserStore
	Secret []byte
	TTL    time.Duration
	Cost   int

	now func() time.Time
}

func NewService(users store.UserStore, secret string, ttl time.Duration) *Service {
	return &Service{
		Users:  users,
		Secret: []byte(secret),
		TTL:    ttl,
		Cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required" msg:"Name is required"`
	Email    string `json:"email" validate:"required,email" msg:"Valid email is required"`
	Password string `json:"password" validate:"required,min=6" msg:"Password must be at least 6 characters"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required" msg:"Email is required"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

// Session is what register and login hand back to the client.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) IssueToken(u *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: u.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

func (s *Service) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// Resolve verifies a raw token and loads the user it names. Every failure is
// Unauthenticated; store outages surface as DependencyUnavailable.
func (s *Service) Resolve(ctx context.Context, raw string) (*models.User, error) {
	claims, err := s.ParseToken(raw)
	if err != nil {
		return nil, &apperr.Error{Code: apperr.CodeUnauthenticated, Message: "Invalid token", Err: err}
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid token")
	}
	u, err := s.Users.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthenticated("User not found")
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return u, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := utils.Validate(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.Cost)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password", err)
	}
	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.Users.InsertUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Unavailable(err)
	}
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	u, err := s.Users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.Unauthenticated("Invalid credentials")
	}
	return s.session(u)
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.IssueToken(u)
	if err != nil {
		return nil, apperr.Internal("Failed to generate token", err)
	}
	return &Session{Token: token, User: u}, nil
}
