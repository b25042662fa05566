package models

// Tag is static reference data attached to recipes.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Color string `gorm:"size:7;not null;uniqueIndex" json:"color"`
	Slug  string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
}

func (Tag) TableName() string {
	return "tags"
}

// Ingredient is unique per (name, measurement unit).
type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;not null;index:idx_ingredients_name;uniqueIndex:uq_name_measurement_unit" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null;uniqueIndex:uq_name_measurement_unit" json:"measurement_unit"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
