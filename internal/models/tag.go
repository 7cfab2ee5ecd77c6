package models

// Tag is reference data attached to recipes.
type Tag struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"size:200;uniqueIndex;not null" yaml:"name"`
	Color string `json:"color" gorm:"size:7;uniqueIndex;not null;default:'#FF0000'" yaml:"color"`
	Slug  string `json:"slug" gorm:"size:200;uniqueIndex;not null" yaml:"slug"`
}

// Ingredient is reference data; a name can exist once per measurement unit.
type Ingredient struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"size:200;not null;index;uniqueIndex:idx_ingredient_name_unit" yaml:"name"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" yaml:"measurement_unit"`
}
