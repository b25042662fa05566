package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/metrics"
)

// ShoppingListFilename is offered to clients downloading the list.
const ShoppingListFilename = "shopping-list.txt"

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// ShoppingListService builds shopping lists from the recipes in a user's cart.
type ShoppingListService struct {
	db      *gorm.DB
	appName string
}

// NewShoppingListService creates a new ShoppingListService instance
func NewShoppingListService(db *gorm.DB, appName string) *ShoppingListService {
	return &ShoppingListService{db: db, appName: appName}
}

// ShoppingList sums the ingredient amounts of every recipe in the user's cart,
// grouped by ingredient name and unit. Items are ordered by name.
func (s *ShoppingListService) ShoppingList(ctx context.Context, userID uint) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients AS ri").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, SUM(ri.amount) AS amount").
		Joins("JOIN ingredients AS i ON i.id = ri.ingredient_id").
		Joins("JOIN shopping_cart AS sc ON sc.recipe_id = ri.recipe_id").
		Where("sc.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name, i.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating shopping list: %w", err)
	}
	return items, nil
}

// Export renders the user's shopping list as a plain-text document.
func (s *ShoppingListService) Export(ctx context.Context, userID uint) (string, error) {
	items, err := s.ShoppingList(ctx, userID)
	if err != nil {
		return "", err
	}
	metrics.ShoppingListDownloadsTotal.Inc()
	return RenderShoppingList(s.appName, items), nil
}

// RenderShoppingList writes the two-line banner followed by one
// "name, amount unit" line per item.
func RenderShoppingList(appName string, items []ShoppingItem) string {
	var b strings.Builder
	b.WriteString(appName)
	b.WriteString("\nСписок покупок:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s, %d %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}
	return b.String()
}
