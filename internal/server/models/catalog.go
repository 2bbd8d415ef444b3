package models

type Tag struct {
	ID    int64
	Name  string
	Color string
	Slug  string
}

type Ingredient struct {
	ID              int64
	Name            string
	MeasurementUnit string
}
