package models

import "time"

// CategoryCount is the number of fixed rating categories (e1..e6).
const CategoryCount = 6

// Point bounds for a single rating.
const (
	MinPoint = 1
	MaxPoint = 5
)

// CategoryKeys lists the rating categories in wire order.
var CategoryKeys = [CategoryCount]string{"e1", "e2", "e3", "e4", "e5", "e6"}

type Rating struct {
	Point  float64 `gorm:"column:point" bson:"point" json:"point"`
	Reason string  `gorm:"column:reason;type:text" bson:"reason" json:"reason"`
}

// Evaluation is a set of ratings written about an evaluatee.
type Evaluation struct {
	ID               string `gorm:"primaryKey;size:40" bson:"_id" json:"id"`
	EvaluateeID      string `gorm:"column:evaluatee_id;size:40;not null;index" bson:"evaluatee_id" json:"evaluateeId"`
	EvaluatorName    string `gorm:"column:evaluator_name;size:255" bson:"evaluator_name" json:"evaluatorName"`
	EvaluatorIconKey string `gorm:"column:evaluator_icon_key;size:512" bson:"evaluator_icon_key,omitempty" json:"evaluatorIconKey,omitempty"`
	Relationship     string `gorm:"size:255" bson:"relationship" json:"relationship"`
	Comment          string `gorm:"type:text" bson:"comment" json:"comment"`

	E1 Rating `gorm:"embedded;embeddedPrefix:e1_" bson:"e1" json:"e1"`
	E2 Rating `gorm:"embedded;embeddedPrefix:e2_" bson:"e2" json:"e2"`
	E3 Rating `gorm:"embedded;embeddedPrefix:e3_" bson:"e3" json:"e3"`
	E4 Rating `gorm:"embedded;embeddedPrefix:e4_" bson:"e4" json:"e4"`
	E5 Rating `gorm:"embedded;embeddedPrefix:e5_" bson:"e5" json:"e5"`
	E6 Rating `gorm:"embedded;embeddedPrefix:e6_" bson:"e6" json:"e6"`

	IsPublished bool `gorm:"column:is_published;not null;default:false;index" bson:"is_published" json:"is_published"`
	IsDeleted   bool `gorm:"column:is_deleted;not null;default:false;index" bson:"is_deleted" json:"is_deleted"`

	CreatedAt time.Time `gorm:"column:created_at;index" bson:"created_at" json:"created"`
	UpdatedAt time.Time `gorm:"column:updated_at" bson:"updated_at" json:"updated"`

	// EvaluatorIconURL is filled on read from object storage, never stored.
	EvaluatorIconURL string `gorm:"-" bson:"-" json:"evaluatorIconUrl,omitempty"`
}

func (e *Evaluation) SetKey(key string) { e.ID = key }

// Points returns the six rating points in category order.
func (e *Evaluation) Points() [CategoryCount]float64 {
	return [CategoryCount]float64{e.E1.Point, e.E2.Point, e.E3.Point, e.E4.Point, e.E5.Point, e.E6.Point}
}

// EvaluationInput is what an evaluator submits.
type EvaluationInput struct {
	EvaluatorName    string `json:"evaluatorName"`
	EvaluatorIconKey string `json:"evaluatorIconKey,omitempty"`
	Relationship     string `json:"relationship"`
	Comment          string `json:"comment"`
	E1               Rating `json:"e1"`
	E2               Rating `json:"e2"`
	E3               Rating `json:"e3"`
	E4               Rating `json:"e4"`
	E5               Rating `json:"e5"`
	E6               Rating `json:"e6"`
}

// Ratings returns pointers to the six ratings in category order.
func (in *EvaluationInput) Ratings() [CategoryCount]*Rating {
	return [CategoryCount]*Rating{&in.E1, &in.E2, &in.E3, &in.E4, &in.E5, &in.E6}
}
