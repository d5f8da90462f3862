package repository

import (
	"context"
	"istas_backend/internal/model"

	"gorm.io/gorm"
)

// CompanyRepository is read-mostly; companies and employees are maintained
// elsewhere and only listed here for selection.
type CompanyRepository struct {
	DB *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{DB: db}
}

func (r *CompanyRepository) CreateCompany(ctx context.Context, c *model.Company) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CompanyRepository) CreateEmployee(ctx context.Context, e *model.Employee) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *CompanyRepository) ListCompanies(ctx context.Context, tenantID string) ([]model.Company, error) {
	var companies []model.Company
	err := r.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name asc").
		Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) FindCompany(ctx context.Context, tenantID string, id uint) (*model.Company, error) {
	var c model.Company
	err := r.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&c, id).Error
	return &c, err
}

func (r *CompanyRepository) ListEmployees(ctx context.Context, tenantID string, companyID uint) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.DB.WithContext(ctx).
		Where("tenant_id = ? AND company_id = ?", tenantID, companyID).
		Order("name asc").
		Find(&employees).Error
	return employees, err
}

func (r *CompanyRepository) FindEmployee(ctx context.Context, tenantID string, id uint) (*model.Employee, error) {
	var e model.Employee
	err := r.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&e, id).Error
	return &e, err
}
