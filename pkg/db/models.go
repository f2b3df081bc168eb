package db

import "time"

// Recipe is one imported dish.
type Recipe struct {
	ID            int64
	Title         string
	Ingredients   string // one ingredient per line
	Instructions  string
	Image         string
	Author        string
	SourceURL     string
	AverageRating float64
	RatingCount   int
	NotionSynced  bool
	AddedAt       time.Time
}

// RecipeList is a named user-defined grouping of recipes.
type RecipeList struct {
	ID   int64
	Name string
}
