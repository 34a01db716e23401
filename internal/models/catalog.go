// ABOUTME: Derived entities maintained by the store: Source and RecordType.
// ABOUTME: Holds the ordered keyword table used to infer a type's Category.
package models

import (
	"strings"
	"time"
)

// Category is a coarse classification bucket for a record type.
type Category string

const (
	CategoryVitalSigns Category = "Vital Signs"
	CategoryActivity   Category = "Activity"
	CategoryFitness    Category = "Fitness"
	CategorySleep      Category = "Sleep"
	CategoryNutrition  Category = "Nutrition"
	CategoryOther      Category = "Other"
)

// CategoryRule maps a keyword set to a category.
type CategoryRule struct {
	Keywords []string
	Category Category
}

// CategoryRules is evaluated in order; the first rule with a matching keyword wins.
var CategoryRules = []CategoryRule{
	{Keywords: []string{"heart", "pulse", "blood"}, Category: CategoryVitalSigns},
	{Keywords: []string{"step", "walk", "run", "distance"}, Category: CategoryActivity},
	{Keywords: []string{"workout", "exercise"}, Category: CategoryFitness},
	{Keywords: []string{"sleep", "rest"}, Category: CategorySleep},
	{Keywords: []string{"nutrition", "food", "water"}, Category: CategoryNutrition},
}

// InferCategory classifies a type name by case-insensitive keyword match.
func InferCategory(typeName string) Category {
	lower := strings.ToLower(typeName)
	for _, rule := range CategoryRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Category
			}
		}
	}
	return CategoryOther
}

// Source is a device or application that produced records.
type Source struct {
	Name      string
	Version   *string
	Device    *string
	FirstSeen time.Time
	LastSeen  time.Time
}

// RecordType is a distinct type name with its category fixed at first sight.
type RecordType struct {
	TypeName string
	Category Category
}
