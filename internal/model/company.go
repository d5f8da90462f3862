package model

type Company struct {
	BaseModel
	TenantID  string     `gorm:"size:64;index;not null" json:"tenantId"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	CNPJ      string     `gorm:"size:18" json:"cnpj"`
	Employees []Employee `gorm:"foreignKey:CompanyID" json:"employees,omitempty"`
}

func (Company) TableName() string {
	return "companies"
}

type Employee struct {
	BaseModel
	TenantID   string `gorm:"size:64;index;not null" json:"tenantId"`
	CompanyID  uint   `gorm:"index;not null" json:"companyId"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Department string `gorm:"size:100" json:"department"`
	JobRole    string `gorm:"size:100" json:"jobRole"`
}

func (Employee) TableName() string {
	return "employees"
}
