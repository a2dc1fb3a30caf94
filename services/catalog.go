package services

import (
	"context"

	"github.com/Kariqs/amexan-market/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductSeller struct {
	ProductID string
	SellerID  string
}

type CatalogEntry struct {
	ID       string
	Name     string
	Sku      string
	SellerID string
}

// CatalogLookup confirms which (product, seller) pairs exist as listed.
type CatalogLookup interface {
	ValidPairs(ctx context.Context, pairs []ProductSeller) ([]CatalogEntry, error)
}

type catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) CatalogLookup {
	return &catalog{db: db}
}

// ValidPairs issues one query with a disjunction of (id = ? AND seller_id = ?) predicates,
// so validation costs a single round trip regardless of cart size.
func (c *catalog) ValidPairs(ctx context.Context, pairs []ProductSeller) ([]CatalogEntry, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	exprs := make([]clause.Expression, 0, len(pairs))
	for _, p := range pairs {
		exprs = append(exprs, clause.And(
			clause.Eq{Column: clause.Column{Name: "id"}, Value: p.ProductID},
			clause.Eq{Column: clause.Column{Name: "seller_id"}, Value: p.SellerID},
		))
	}

	var entries []CatalogEntry
	err := c.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("id", "name", "sku", "seller_id").
		Where(clause.Or(exprs...)).
		Scan(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "catalog lookup failed")
	}
	return entries, nil
}
