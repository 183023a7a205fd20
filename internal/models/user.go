package models

import (
	"math"
	"time"
)

// DeletedUserName replaces the display name of a withdrawn user.
const DeletedUserName = "Withdrawn user"

// User is an evaluatee account. Aggregate fields are denormalised from the
// user's evaluations and only move through the evaluation service.
type User struct {
	ID        string `gorm:"primaryKey;size:40" bson:"_id" json:"id"`
	Auth0ID   string `gorm:"column:auth0_id;size:255;uniqueIndex" bson:"auth0_id" json:"auth0_id"`
	Name      string `gorm:"size:255" bson:"name" json:"name"`
	Profile   string `gorm:"type:text" bson:"profile" json:"profile"`
	IconKey   string `gorm:"column:icon_key;size:512" bson:"icon_key" json:"icon_key"`
	IsDeleted bool   `gorm:"column:is_deleted;not null;default:false;index" bson:"is_deleted" json:"is_deleted"`

	AllEvaluationNum       int               `gorm:"column:all_evaluation_num;not null;default:0" bson:"all_evaluation_num" json:"allEvaluationNum"`
	PublishedEvaluationNum int               `gorm:"column:published_evaluation_num;not null;default:0" bson:"published_evaluation_num" json:"publishedEvaluationNum"`
	Average                EvaluationAverage `gorm:"embedded;embeddedPrefix:avg_" bson:"average_evaluation" json:"averageEvaluation"`

	CreatedAt time.Time `gorm:"column:created_at" bson:"created_at" json:"created"`
	UpdatedAt time.Time `gorm:"column:updated_at" bson:"updated_at" json:"updated"`
}

func (u *User) SetKey(key string) { u.ID = key }

// UserInput is the caller-editable part of a user.
type UserInput struct {
	Name    string `json:"name"`
	Profile string `json:"profile"`
	IconKey string `json:"icon_key"`
}

// EvaluationAverage holds the running mean of published points per category.
type EvaluationAverage struct {
	E1 float64 `gorm:"column:e1" bson:"e1" json:"e1"`
	E2 float64 `gorm:"column:e2" bson:"e2" json:"e2"`
	E3 float64 `gorm:"column:e3" bson:"e3" json:"e3"`
	E4 float64 `gorm:"column:e4" bson:"e4" json:"e4"`
	E5 float64 `gorm:"column:e5" bson:"e5" json:"e5"`
	E6 float64 `gorm:"column:e6" bson:"e6" json:"e6"`
}

// Values returns the averages in category order.
func (a EvaluationAverage) Values() [CategoryCount]float64 {
	return [CategoryCount]float64{a.E1, a.E2, a.E3, a.E4, a.E5, a.E6}
}

// SetValues writes averages back in category order.
func (a *EvaluationAverage) SetValues(v [CategoryCount]float64) {
	a.E1, a.E2, a.E3, a.E4, a.E5, a.E6 = v[0], v[1], v[2], v[3], v[4], v[5]
}

// Rounded returns a copy with every average rounded to one decimal place.
func (a EvaluationAverage) Rounded() EvaluationAverage {
	v := a.Values()
	for i := range v {
		v[i] = math.Round(v[i]*10) / 10
	}
	var out EvaluationAverage
	out.SetValues(v)
	return out
}
