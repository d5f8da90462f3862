package model

import "time"

// Evaluation is one employee's answers to one form. Totals are denormalised
// so history and reports do not need to re-read answers.
type Evaluation struct {
	UUIDBase
	TenantID             string             `gorm:"size:64;index:idx_evaluation_owner;not null" json:"tenantId"`
	EmployeeID           uint               `gorm:"index:idx_evaluation_owner;not null" json:"employeeId"`
	FormID               uint               `gorm:"index;not null" json:"formId"`
	CreatedBy            uint               `json:"createdBy"`
	TotalYes             int                `gorm:"default:0" json:"totalYes"`
	TotalNo              int                `gorm:"default:0" json:"totalNo"`
	QuestionCount        int                `gorm:"default:0" json:"questionCount"`
	SeverityLight        int                `gorm:"default:0" json:"severityLight"`
	SeverityMedium       int                `gorm:"default:0" json:"severityMedium"`
	SeverityHigh         int                `gorm:"default:0" json:"severityHigh"`
	CompletionPercentage int                `gorm:"default:0" json:"completionPercentage"`
	PercentYes           float64            `gorm:"default:0" json:"percentYes"`
	RiskLevel            string             `gorm:"size:20" json:"riskLevel"`
	IsComplete           bool               `gorm:"default:false;index" json:"isComplete"`
	CompletedAt          *time.Time         `json:"completedAt,omitempty"`
	Notes                string             `gorm:"type:text" json:"notes"`
	Version              int                `gorm:"default:1;not null" json:"version"`
	Answers              []EvaluationAnswer `gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// EvaluationAnswer stores one question's answer. Response is NULL while the
// question is unanswered.
type EvaluationAnswer struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EvaluationID string    `gorm:"type:varchar(36);uniqueIndex:idx_answer_question;not null" json:"evaluationId"`
	QuestionID   uint      `gorm:"uniqueIndex:idx_answer_question;not null" json:"questionId"`
	Response     *bool     `json:"response"`
	Observation  *string   `gorm:"type:text" json:"observation,omitempty"`
	Options      []string  `gorm:"serializer:json;type:text" json:"options,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (EvaluationAnswer) TableName() string {
	return "evaluation_answers"
}
