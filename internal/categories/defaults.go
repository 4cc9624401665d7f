package categories

import "github.com/budgetctl/budgetctl/internal/model"

// Category is one catalog entry. Label is the value stamped on transactions.
type Category struct {
	Label       model.Category `json:"label"`
	Description string         `json:"description"`
	Color       string         `json:"color"`
}

// DefaultCatalog returns the catalog seeded by init: the fixed enumeration
// in canonical order.
func DefaultCatalog() []Category {
	return []Category{
		{Label: model.CategoryFood, Description: "Groceries and eating out", Color: "#4caf50"},
		{Label: model.CategoryHousehold, Description: "Household chemicals and drugstores", Color: "#03a9f4"},
		{Label: model.CategoryFuel, Description: "Fuel stations", Color: "#ff9800"},
		{Label: model.CategoryTransport, Description: "Public transport, taxis and tickets", Color: "#795548"},
		{Label: model.CategoryEntertainment, Description: "Streaming, cinema, games and going out", Color: "#e91e63"},
		{Label: model.CategoryBills, Description: "Utilities, telecom and subscriptions", Color: "#607d8b"},
		{Label: model.CategoryHealth, Description: "Pharmacies and medical care", Color: "#f44336"},
		{Label: model.CategoryClothing, Description: "Clothes and shoes", Color: "#9c27b0"},
		{Label: model.CategoryUnassigned, Description: "Not yet categorized", Color: "#9e9e9e"},
		{Label: model.CategoryOther, Description: "Everything else", Color: "#bdbdbd"},
	}
}
