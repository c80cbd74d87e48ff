package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/allerscan/backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nonconformingCaseModel is the stored form of domain.NonconformingCase
type nonconformingCaseModel struct {
	ID                string `gorm:"type:varchar(36);primaryKey"`
	RecipeID          int64  `gorm:"index;not null"`
	CaseID            string `gorm:"size:64;not null"`
	Country           string `gorm:"size:64"`
	Ingredient        string `gorm:"size:255"`
	AnnouncementDate  string `gorm:"size:32"`
	ViolationReason   string `gorm:"type:text"`
	Action            string `gorm:"type:text"`
	MatchedIngredient string `gorm:"size:255"`
	CreatedAt         time.Time
}

// TableName overrides the gorm pluralised default
func (nonconformingCaseModel) TableName() string {
	return "recipe_nonconforming_case"
}

// BeforeCreate assigns a random id when none is set
func (m *nonconformingCaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func toModel(c domain.NonconformingCase) nonconformingCaseModel {
	return nonconformingCaseModel{
		RecipeID:          c.RecipeID,
		CaseID:            c.CaseID,
		Country:           c.Country,
		Ingredient:        c.Ingredient,
		AnnouncementDate:  c.AnnouncementDate,
		ViolationReason:   c.ViolationReason,
		Action:            c.Action,
		MatchedIngredient: c.MatchedIngredient,
		CreatedAt:         c.CreatedAt,
	}
}

func (m nonconformingCaseModel) toDomain() domain.NonconformingCase {
	return domain.NonconformingCase{
		RecipeID:          m.RecipeID,
		CaseID:            m.CaseID,
		Country:           m.Country,
		Ingredient:        m.Ingredient,
		AnnouncementDate:  m.AnnouncementDate,
		ViolationReason:   m.ViolationReason,
		Action:            m.Action,
		MatchedIngredient: m.MatchedIngredient,
		CreatedAt:         m.CreatedAt,
	}
}

// CaseRepository implements domain.CaseRepository on gorm
type CaseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a repository on an already migrated database
func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// SaveAll inserts every record in one transaction
func (r *CaseRepository) SaveAll(ctx context.Context, cases []domain.NonconformingCase) error {
	if len(cases) == 0 {
		return nil
	}

	models := make([]nonconformingCaseModel, 0, len(cases))
	for _, c := range cases {
		models = append(models, toModel(c))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&models, 100).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save %d cases: %w", len(cases), err)
	}
	return nil
}

// ListByRecipe returns the records of recipeID, oldest first
func (r *CaseRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]domain.NonconformingCase, error) {
	var models []nonconformingCaseModel
	err := r.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Order("created_at ASC").
		Order("case_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cases for recipe %d: %w", recipeID, err)
	}

	out := make([]domain.NonconformingCase, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}
