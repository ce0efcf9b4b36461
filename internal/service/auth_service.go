package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/realtydesk/realty-service/internal/auth"
	"github.com/realtydesk/realty-service/internal/config"
	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/repository"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

const minPasswordLen = 8

// AuthService handles registration, login and password management for
// both customers and agents.
type AuthService struct {
	customers repository.CustomerRepository
	agents    repository.AgentRepository
	resets    repository.PasswordResetRepository
	tokens    *auth.TokenManager
	cfg       config.AuthConfig
	now       func() time.Time
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	CustomerRepo repository.CustomerRepository
	AgentRepo    repository.AgentRepository
	ResetRepo    repository.PasswordResetRepository
	Tokens       *auth.TokenManager
	Config       config.AuthConfig
	Now          func() time.Time
}

// LoginResult carries the issued token and subject identity.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	SubjectID string
	Subject   domain.SubjectType
	Role      *domain.AgentRole
}

// CustomerRegisterInput is the self-service signup payload.
type CustomerRegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AgentRegisterInput is the admin-driven operator signup payload.
type AgentRegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.AgentRole
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		customers: deps.CustomerRepo,
		agents:    deps.AgentRepo,
		resets:    deps.ResetRepo,
		tokens:    deps.Tokens,
		cfg:       deps.Config,
		now:       now,
	}
}

// RegisterCustomer creates a customer account at the LEAD stage.
func (s *AuthService) RegisterCustomer(ctx context.Context, input CustomerRegisterInput) (*domain.Customer, error) {
	email := normalizeEmail(input.Email)
	if err := validateCredentials(email, input.Password); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	customer := &domain.Customer{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Status:       domain.CustomerStatusActive,
		Stage:        domain.FunnelStageLead,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// RegisterAgent creates an operator account. Callers are expected to
// gate this behind the admin role.
func (s *AuthService) RegisterAgent(ctx context.Context, input AgentRegisterInput) (*domain.Agent, error) {
	email := normalizeEmail(input.Email)
	if err := validateCredentials(email, input.Password); err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = domain.AgentRoleAgent
	}
	if role != domain.AgentRoleAgent && role != domain.AgentRoleAdmin {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if _, err := s.agents.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	agent := &domain.Agent{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}

// LoginCustomer authenticates a customer and issues a token.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*LoginResult, error) {
	customer, err := s.customers.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if customer.Status != domain.CustomerStatusActive {
		return nil, apperrors.NewForbidden("account suspended")
	}
	if err := auth.ComparePassword(customer.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	token, expiresAt, err := s.tokens.GenerateToken(customer.ID, domain.SubjectTypeCustomer, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		SubjectID: customer.ID,
		Subject:   domain.SubjectTypeCustomer,
	}, nil
}

// LoginAgent authenticates an operator and issues a role-bearing token.
func (s *AuthService) LoginAgent(ctx context.Context, email, password string) (*LoginResult, error) {
	agent, err := s.agents.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !agent.Active {
		return nil, apperrors.NewForbidden("account deactivated")
	}
	if err := auth.ComparePassword(agent.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	role := agent.Role
	token, expiresAt, err := s.tokens.GenerateToken(agent.ID, domain.SubjectTypeAgent, &role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		SubjectID: agent.ID,
		Subject:   domain.SubjectTypeAgent,
		Role:      &role,
	}, nil
}

// RequestPasswordReset issues an opaque single-use reset token. The
// token is returned to the caller for delivery; unknown emails produce
// no token and no error, so the endpoint does not leak registrations.
func (s *AuthService) RequestPasswordReset(ctx context.Context, subject domain.SubjectType, email string) (string, error) {
	subjectID, err := s.lookupSubjectID(ctx, subject, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", apperrors.MapError(err)
	}

	reset := &repository.PasswordResetToken{
		SubjectType: string(subject),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   s.now().Add(time.Duration(s.cfg.PasswordResetTTLMinutes) * time.Minute),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", apperrors.MapError(err)
	}
	return reset.Token, nil
}

// ConfirmPasswordReset consumes a reset token and sets a new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLen})
	}
	reset, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid reset token")
		}
		return apperrors.MapError(err)
	}
	if reset.UsedAt != nil || s.now().After(reset.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired")
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.setPasswordHash(ctx, domain.SubjectType(reset.SubjectType), reset.SubjectID, hash); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ChangePassword verifies the current password before replacing it.
func (s *AuthService) ChangePassword(ctx context.Context, subject domain.SubjectType, subjectID, current, next string) error {
	if len(next) < minPasswordLen {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLen})
	}

	var currentHash string
	switch subject {
	case domain.SubjectTypeCustomer:
		customer, err := s.customers.GetByID(ctx, subjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		currentHash = customer.PasswordHash
	case domain.SubjectTypeAgent:
		agent, err := s.agents.GetByID(ctx, subjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		currentHash = agent.PasswordHash
	default:
		return apperrors.NewValidationError("unknown subject type", nil)
	}

	if err := auth.ComparePassword(currentHash, current); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(next, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return s.setPasswordHash(ctx, subject, subjectID, hash)
}

func (s *AuthService) lookupSubjectID(ctx context.Context, subject domain.SubjectType, email string) (string, error) {
	switch subject {
	case domain.SubjectTypeCustomer:
		customer, err := s.customers.GetByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		return customer.ID, nil
	case domain.SubjectTypeAgent:
		agent, err := s.agents.GetByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		return agent.ID, nil
	}
	return "", pgx.ErrNoRows
}

func (s *AuthService) setPasswordHash(ctx context.Context, subject domain.SubjectType, subjectID, hash string) error {
	switch subject {
	case domain.SubjectTypeCustomer:
		customer, err := s.customers.GetByID(ctx, subjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		customer.PasswordHash = hash
		return apperrors.MapError(s.customers.Update(ctx, customer))
	case domain.SubjectTypeAgent:
		agent, err := s.agents.GetByID(ctx, subjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		agent.PasswordHash = hash
		return apperrors.MapError(s.agents.Update(ctx, agent))
	}
	return apperrors.NewValidationError("unknown subject type", nil)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.NewValidationError("invalid email", nil)
	}
	if len(password) < minPasswordLen {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": minPasswordLen})
	}
	return nil
}
