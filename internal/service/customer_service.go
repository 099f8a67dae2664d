package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/freshmart/grocery-api/internal/auth"
	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
	apperrors "github.com/freshmart/grocery-api/pkg/errors"
	"github.com/freshmart/grocery-api/pkg/logger"
)

// CustomerService handles account registration, login and profile reads.
type CustomerService struct {
	customers CustomerStore
	loyalty   LoyaltyStore
	tokens    *auth.TokenManager
	logger    logger.Logger
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(customers CustomerStore, loyalty LoyaltyStore, tokens *auth.TokenManager, logger logger.Logger) *CustomerService {
	return &CustomerService{customers: customers, loyalty: loyalty, tokens: tokens, logger: logger}
}

// RegisterInput holds a new account's fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    *string
}

// AuthResult is a created or authenticated account plus its bearer token.
type AuthResult struct {
	Customer *models.Customer `json:"customer"`
	Token    string           `json:"token"`
}

// Register creates an account and returns a signed token.
func (s *CustomerService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Name == "" || input.Email == "" {
		return nil, apperrors.NewInvalidInputError("Name and email are required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewInvalidInputError("Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	customer := models.NewCustomer(input.Name, input.Email, string(hash), input.Phone)

	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflictError("An account with this email already exists")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(auth.Principal{ID: customer.ID, Name: customer.Name, Role: auth.RoleCustomer})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Customer registered", "customerID", customer.ID)
	return &AuthResult{Customer: customer, Token: token}, nil
}

// Login verifies credentials and returns a signed token.
func (s *CustomerService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorizedError("Invalid email or password")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid email or password")
	}

	token, err := s.tokens.Issue(auth.Principal{ID: customer.ID, Name: customer.Name, Role: auth.RoleCustomer})
	if err != nil {
		return nil, err
	}

	return &AuthResult{Customer: customer, Token: token}, nil
}

// GetProfile returns the caller's account.
func (s *CustomerService) GetProfile(ctx context.Context, customerID string) (*models.Customer, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("Customer not found")
		}
		return nil, err
	}
	return customer, nil
}

// LoyaltySummary is a customer's points balance and history.
type LoyaltySummary struct {
	Balance      int                          `json:"balance"`
	Transactions []*models.LoyaltyTransaction `json:"transactions"`
}

// GetLoyaltySummary returns the caller's loyalty balance and transactions.
func (s *CustomerService) GetLoyaltySummary(ctx context.Context, customerID string) (*LoyaltySummary, error) {
	balance, err := s.loyalty.GetBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.loyalty.GetByCustomerID(ctx, customerID, 50, 0)
	if err != nil {
		return nil, err
	}

	return &LoyaltySummary{Balance: balance, Transactions: transactions}, nil
}
