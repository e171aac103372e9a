package service

import (
	"context"
	"testing"

	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCompanyService(repo *mockRepository) *CompanyService {
	logger := zerolog.Nop()
	return NewCompanyService(repo, &logger)
}

func TestCreateCompany(t *testing.T) {
	manager := &models.User{UserID: "u-1", Role: models.RoleManager}
	admin := &models.User{UserID: "u-2", Role: models.RoleAdmin}

	t.Run("manager can create", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newCompanyService(repo)
		repo.On("CreateCompany", mock.Anything, mock.AnythingOfType("*models.Company")).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Company).CompanyID = "c-1"
		}).Return(nil)

		company, err := svc.CreateCompany(context.Background(), manager, "  Acme  ", "клиент")
		require.NoError(t, err)
		assert.Equal(t, "Acme", company.Name)
		assert.Equal(t, "u-1", company.CreatedBy)
	})

	t.Run("admin is denied", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newCompanyService(repo)

		_, err := svc.CreateCompany(context.Background(), admin, "Acme", "")
		assert.ErrorIs(t, err, ErrPermissionDenied)
		repo.AssertNotCalled(t, "CreateCompany", mock.Anything, mock.Anything)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newCompanyService(repo)

		_, err := svc.CreateCompany(context.Background(), manager, "   ", "")
		assert.ErrorIs(t, err, ErrEmptyName)
	})
}
