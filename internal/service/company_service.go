package service

import (
	"context"
	"strings"

	"github.com/tammmikel/task-botv2/internal/domain"
	"github.com/tammmikel/task-botv2/internal/models"

	"github.com/rs/zerolog"
)

type CompanyService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewCompanyService(repo domain.Repository, logger *zerolog.Logger) *CompanyService {
	return &CompanyService{
		repo:   repo,
		logger: logger,
	}
}

// CreateCompany создает компанию. Доступно директору и менеджерам.
func (s *CompanyService) CreateCompany(ctx context.Context, actor *models.User, name, description string) (*models.Company, error) {
	if !actor.CanManage() {
		return nil, ErrPermissionDenied
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	company := &models.Company{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("company_id", company.CompanyID).
		Str("name", company.Name).
		Str("created_by", actor.UserID).
		Msg("company created")

	return company, nil
}

func (s *CompanyService) GetCompanyByID(ctx context.Context, companyID string) (*models.Company, error) {
	return s.repo.GetCompanyByID(ctx, companyID)
}

func (s *CompanyService) GetCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	return s.repo.GetCompanyByName(ctx, strings.TrimSpace(name))
}

func (s *CompanyService) GetAllCompanies(ctx context.Context) ([]*models.Company, error) {
	return s.repo.GetAllCompanies(ctx)
}
