package model

// Severity is one of the three harm tiers (light, medium, high).
type Severity struct {
	BaseModel
	Tier  string `gorm:"size:20;uniqueIndex;not null" json:"tier"`
	Name  string `gorm:"size:100;not null" json:"name"`
	Color string `gorm:"size:20" json:"color"`
}

func (Severity) TableName() string {
	return "severities"
}

type Risk struct {
	BaseModel
	Code        string    `gorm:"size:50;uniqueIndex" json:"code"`
	Description string    `gorm:"type:text;not null" json:"description"`
	SeverityID  *uint     `gorm:"index" json:"severityId"`
	Severity    *Severity `gorm:"foreignKey:SeverityID" json:"severity,omitempty"`
}

func (Risk) TableName() string {
	return "risks"
}

type Form struct {
	BaseModel
	Code        string    `gorm:"size:50;uniqueIndex" json:"code"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"isActive"`
	Sections    []Section `gorm:"foreignKey:FormID" json:"sections,omitempty"`
}

func (Form) TableName() string {
	return "forms"
}

type Section struct {
	BaseModel
	FormID    uint       `gorm:"uniqueIndex:idx_section_code;not null" json:"formId"`
	Code      string     `gorm:"size:50;uniqueIndex:idx_section_code;not null" json:"code"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Order     *int       `gorm:"column:display_order" json:"order"`
	Questions []Question `gorm:"foreignKey:SectionID" json:"questions,omitempty"`
}

func (Section) TableName() string {
	return "sections"
}

type Question struct {
	BaseModel
	FormID              uint     `gorm:"uniqueIndex:idx_question_code;not null" json:"formId"`
	Code                string   `gorm:"size:50;uniqueIndex:idx_question_code;not null" json:"code"`
	SectionID           uint     `gorm:"index;not null" json:"sectionId"`
	Text                string   `gorm:"type:text;not null" json:"text"`
	RiskID              *uint    `gorm:"index" json:"riskId"`
	Risk                *Risk    `gorm:"foreignKey:RiskID" json:"risk,omitempty"`
	Order               int      `gorm:"column:display_order;default:0" json:"order"`
	RequiresObservation bool     `gorm:"default:false" json:"requiresObservation"`
	Options             []string `gorm:"serializer:json;type:text" json:"options,omitempty"`

	// RiskCode links a question to a risk during catalog import.
	RiskCode string `gorm:"-" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}
