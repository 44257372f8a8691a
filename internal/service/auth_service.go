package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
	"exppro-backend/utilities"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

const maxNameLength = 150

// SignupRequest is the payload accepted by Signup.
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
	Group    string `json:"group" binding:"required"`
}

// AuthService interface
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*model.AuthView, error)
	Login(ctx context.Context, username, password string) (*model.AuthView, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
	CreateSuperuser(ctx context.Context, username, email, password string) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	signer     *utilities.TokenSigner
	bcryptCost int
}

// NewAuthService initializes authentication service
func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, signer *utilities.TokenSigner, bcryptCost int) AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{userRepo: userRepo, tokenRepo: tokenRepo, signer: signer, bcryptCost: bcryptCost}
}

func (s *authService) Signup(ctx context.Context, req SignupRequest) (*model.AuthView, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Group = strings.TrimSpace(req.Group)
	if err := s.validateSignup(ctx, req); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, req.Username, req.Email, req.Password, false)
	if err != nil {
		return nil, err
	}

	group, err := s.userRepo.GetOrCreateGroup(ctx, req.Group)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.AddToGroup(ctx, user, group); err != nil {
		return nil, err
	}
	user.Groups = []model.Group{*group}

	key, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "user signed up", "user_id", user.ID, "group", group.Name)

	view := model.NewAuthView(key, user)
	return &view, nil
}

func (s *authService) validateSignup(ctx context.Context, req SignupRequest) error {
	verr := &ValidationError{}
	switch {
	case req.Username == "":
		verr.Add("username", MsgRequired)
	case len(req.Username) > maxNameLength:
		verr.Add("username", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	case !usernamePattern.MatchString(req.Username):
		verr.Add("username", MsgInvalidUsername)
	default:
		taken, err := s.userRepo.UsernameTaken(ctx, req.Username)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("username", MsgUsernameTaken)
		}
	}
	if req.Password == "" {
		verr.Add("password", MsgRequired)
	}
	switch {
	case req.Group == "":
		verr.Add("group", MsgRequired)
	case len(req.Group) > maxNameLength:
		verr.Add("group", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	return verr.OrNil()
}

func (s *authService) createUser(ctx context.Context, username, email, password string, staff bool) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: string(hash),
		IsStaff:  staff,
		IsActive: true,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// Lost a race against a concurrent signup with the same name.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("username", MsgUsernameTaken)
		}
		return nil, err
	}
	return user, nil
}

// Login function to authenticate user
func (s *authService) Login(ctx context.Context, username, password string) (*model.AuthView, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	key, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		slog.WarnContext(ctx, "failed to record last login", "user_id", user.ID, "error", err)
	}

	view := model.NewAuthView(key, user)
	return &view, nil
}

// issueToken returns the user's existing token, signing a new one only on
// first use or when the stored key no longer verifies under the current secret.
func (s *authService) issueToken(ctx context.Context, user *model.User) (string, error) {
	candidate, err := s.signer.Sign(user)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	token, err := s.tokenRepo.GetOrCreate(ctx, user.ID, candidate)
	if err != nil {
		return "", err
	}
	if claims, err := s.signer.Validate(token.Key); err == nil && claims.UserID == user.ID {
		return token.Key, nil
	}

	slog.InfoContext(ctx, "reissuing token signed with a previous secret", "user_id", user.ID)
	token, err = s.tokenRepo.Replace(ctx, user.ID, candidate)
	if err != nil {
		return "", err
	}
	return token.Key, nil
}

func (s *authService) Authenticate(ctx context.Context, key string) (*model.User, error) {
	claims, err := s.signer.Validate(key)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	token, err := s.tokenRepo.GetByKey(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if token.UserID != claims.UserID || !token.User.IsActive {
		return nil, ErrUnauthenticated
	}
	return &token.User, nil
}

func (s *authService) CreateSuperuser(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	verr := &ValidationError{}
	if username == "" {
		verr.Add("username", MsgRequired)
	} else if !usernamePattern.MatchString(username) || len(username) > maxNameLength {
		verr.Add("username", MsgInvalidUsername)
	}
	if password == "" {
		verr.Add("password", MsgRequired)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	user, err := s.createUser(ctx, username, email, password, true)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "superuser created", "user_id", user.ID, "username", user.Username)
	return user, nil
}
