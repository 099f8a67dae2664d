package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/grocery-api/internal/auth"
	"github.com/freshmart/grocery-api/internal/models"
	"github.com/freshmart/grocery-api/internal/repository"
	apperrors "github.com/freshmart/grocery-api/pkg/errors"
	"github.com/freshmart/grocery-api/pkg/logger"
)

type memLoyalty struct {
	transactions []*models.LoyaltyTransaction
}

func (m *memLoyalty) Create(_ context.Context, tx *models.LoyaltyTransaction) error {
	for _, existing := range m.transactions {
		if existing.CustomerID == tx.CustomerID && existing.OrderID == tx.OrderID {
			return repository.ErrDuplicate
		}
	}
	tx.ID = int64(len(m.transactions) + 1)
	cp := *tx
	m.transactions = append(m.transactions, &cp)
	return nil
}

func (m *memLoyalty) GetByCustomerID(_ context.Context, customerID string, limit, offset int) ([]*models.LoyaltyTransaction, error) {
	var out []*models.LoyaltyTransaction
	for _, tx := range m.transactions {
		if tx.CustomerID == customerID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return page(out, limit, offset), nil
}

func (m *memLoyalty) GetBalance(_ context.Context, customerID string) (int, error) {
	total := 0
	for _, tx := range m.transactions {
		if tx.CustomerID == customerID {
			total += tx.Points
		}
	}
	return total, nil
}

func newCustomerService(t *testing.T) (*CustomerService, *memCustomers, *memLoyalty, *auth.TokenManager) {
	t.Helper()
	customers := newMemCustomers()
	loyalty := &memLoyalty{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewCustomerService(customers, loyalty, tokens, logger.New("error"))
	return svc, customers, loyalty, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _, tokens := newCustomerService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Nimal Perera",
		Email:    "Nimal@Example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	// Email is normalized on the way in.
	assert.Equal(t, "nimal@example.com", result.Customer.Email)
	assert.NotEqual(t, "hunter2hunter2", result.Customer.PasswordHash)

	principal, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Customer.ID, principal.ID)
	assert.Equal(t, auth.RoleCustomer, principal.Role)

	login, err := svc.Login(context.Background(), "nimal@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, result.Customer.ID, login.Customer.ID)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _, _, _ := newCustomerService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Nimal", Email: "nimal@example.com", Password: "short",
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusCode(err))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newCustomerService(t)

	input := RegisterInput{Name: "Nimal", Email: "nimal@example.com", Password: "hunter2hunter2"}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, 409, apperrors.StatusCode(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _, _ := newCustomerService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Nimal", Email: "nimal@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "nimal@example.com", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, 401, apperrors.StatusCode(err))

	// Unknown accounts fail identically to wrong passwords.
	_, err = svc.Login(context.Background(), "nobody@example.com", "hunter2hunter2")
	require.Error(t, err)
	assert.Equal(t, 401, apperrors.StatusCode(err))
}

func TestGetLoyaltySummary(t *testing.T) {
	svc, _, loyalty, _ := newCustomerService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Name: "Nimal", Email: "nimal@example.com", Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, loyalty.Create(context.Background(), &models.LoyaltyTransaction{
		CustomerID: result.Customer.ID, OrderID: "ord-1", Points: 14,
	}))
	require.NoError(t, loyalty.Create(context.Background(), &models.LoyaltyTransaction{
		CustomerID: result.Customer.ID, OrderID: "ord-2", Points: 9,
	}))

	summary, err := svc.GetLoyaltySummary(context.Background(), result.Customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 23, summary.Balance)
	assert.Len(t, summary.Transactions, 2)
}
