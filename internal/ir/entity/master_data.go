package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 以下为门店/商品主数据，由其它模块维护，本模块只读

// Branch 门店
type Branch struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:16;uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	IsHQ      bool      `json:"is_hq" gorm:"default:false"`
	Status    string    `json:"status" gorm:"size:20;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Branch) TableName() string {
	return "branches"
}

// Product 商品
type Product struct {
	ID        string          `json:"id" gorm:"primaryKey;size:32"`
	SKU       string          `json:"sku" gorm:"size:50;uniqueIndex"`
	Name      string          `json:"name" gorm:"size:200;not null"`
	Unit      string          `json:"unit" gorm:"size:20;default:pcs"`
	UnitCost  decimal.Decimal `json:"unit_cost" gorm:"type:decimal(15,4);default:0"`
	Status    string          `json:"status" gorm:"size:20;default:active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// BranchStock 门店库存
type BranchStock struct {
	BranchID  string          `json:"branch_id" gorm:"primaryKey;size:32"`
	ProductID string          `json:"product_id" gorm:"primaryKey;size:32"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(15,3);default:0"`
	MinStock  decimal.Decimal `json:"min_stock" gorm:"type:decimal(15,3);default:0"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (BranchStock) TableName() string {
	return "branch_stocks"
}
