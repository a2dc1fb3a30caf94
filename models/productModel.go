package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog read model. Catalog maintenance happens elsewhere; this service
// only reads listings and writes the materialized Rating/ReviewCount pair.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Unit        string          `json:"unit"`
	InStock     bool            `json:"inStock" gorm:"not null;default:true"`
	Rating      decimal.Decimal `json:"rating" gorm:"type:decimal(3,2);not null;default:0"`
	ReviewCount int             `json:"reviewCount" gorm:"not null;default:0"`
	Brand       string          `json:"brand"`
	Sku         string          `json:"sku"`
	SellerID    string          `json:"sellerId" gorm:"type:varchar(36);not null;index"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Images      []ProductImage  `json:"images" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

type ProductImage struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);not null;index"`
	Url       string    `json:"url" gorm:"not null"`
	Alt       string    `json:"alt"`
	IsPrimary bool      `json:"isPrimary" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
}
