package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Requisition 内部请购单（门店向总部/仓库申请补货）
type Requisition struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	IRNumber string `json:"ir_number" gorm:"size:32;uniqueIndex;not null"`

	// 门店
	RequestingBranchID   string  `json:"requesting_branch_id" gorm:"size:32;not null;index"`
	RequestingBranchCode string  `json:"requesting_branch_code" gorm:"size:16;not null"`
	FulfillingBranchID   *string `json:"fulfilling_branch_id" gorm:"size:32"`
	PurchaseOrderID      *string `json:"purchase_order_id" gorm:"size:32"` // 合并采购单

	RequestType RequestType       `json:"request_type" gorm:"size:20;not null"`
	Priority    Priority          `json:"priority" gorm:"size:20;default:normal;index"`
	Status      RequisitionStatus `json:"status" gorm:"size:24;not null;index"`

	RequestedDeliveryDate *time.Time `json:"requested_delivery_date"`
	ActualDeliveryDate    *time.Time `json:"actual_delivery_date"`

	// 汇总（由行项派生，不接受外部写入）
	TotalItems     int             `json:"total_items" gorm:"default:0"`
	TotalQuantity  decimal.Decimal `json:"total_quantity" gorm:"type:decimal(15,3);default:0"`
	EstimatedValue decimal.Decimal `json:"estimated_value" gorm:"type:decimal(15,2);default:0"`

	Notes           string `json:"notes" gorm:"type:text"`
	RejectionReason string `json:"rejection_reason" gorm:"type:text"`
	CancelReason    string `json:"cancel_reason" gorm:"type:text"`

	RequestedBy string     `json:"requested_by" gorm:"size:32;not null"`
	RequestedAt time.Time  `json:"requested_at"`
	ReviewedBy  *string    `json:"reviewed_by" gorm:"size:32"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ApprovedBy  *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt  *time.Time `json:"approved_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	// 乐观锁
	Version   int       `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []RequisitionItem `json:"items,omitempty" gorm:"foreignKey:RequisitionID"`
}

func (Requisition) TableName() string {
	return "ir_requisitions"
}

// RequisitionItem 请购行项
type RequisitionItem struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	RequisitionID string `json:"requisition_id" gorm:"size:32;not null;index"`

	ProductID   string `json:"product_id" gorm:"size:32;not null"`
	ProductSKU  string `json:"product_sku" gorm:"size:50"`
	ProductName string `json:"product_name" gorm:"size:200"`
	Unit        string `json:"unit" gorm:"size:20;default:pcs"`

	RequestedQuantity decimal.Decimal     `json:"requested_quantity" gorm:"type:decimal(15,3);not null"`
	ApprovedQuantity  decimal.NullDecimal `json:"approved_quantity" gorm:"type:decimal(15,3)"`
	FulfilledQuantity decimal.Decimal     `json:"fulfilled_quantity" gorm:"type:decimal(15,3);default:0"`

	// 申请时的库存快照，不再回查
	CurrentStock decimal.Decimal `json:"current_stock" gorm:"type:decimal(15,3);default:0"`
	MinStock     decimal.Decimal `json:"min_stock" gorm:"type:decimal(15,3);default:0"`

	EstimatedUnitCost  decimal.Decimal `json:"estimated_unit_cost" gorm:"type:decimal(15,4);default:0"`
	EstimatedTotalCost decimal.Decimal `json:"estimated_total_cost" gorm:"type:decimal(15,2);default:0"`

	Status          ItemStatus `json:"status" gorm:"size:24;default:pending"`
	RejectionReason string     `json:"rejection_reason" gorm:"type:text"`
	Notes           string     `json:"notes" gorm:"type:text"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RequisitionItem) TableName() string {
	return "ir_requisition_items"
}
