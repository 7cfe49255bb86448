package repository

import (
	"context"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductSnapshot 商品及其在某门店的库存快照
type ProductSnapshot struct {
	Product      entity.Product
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
}

// MasterDataRepository 门店/商品主数据只读仓库
type MasterDataRepository struct {
	db *gorm.DB
}

func NewMasterDataRepository(db *gorm.DB) *MasterDataRepository {
	return &MasterDataRepository{db: db}
}

// FindBranch 查找门店
func (r *MasterDataRepository) FindBranch(ctx context.Context, id string) (*entity.Branch, error) {
	var branch entity.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error; err != nil {
		return nil, classify(err)
	}
	return &branch, nil
}

// FindProducts 批量查找商品并带出门店库存；不存在的商品不会出现在结果中
func (r *MasterDataRepository) FindProducts(ctx context.Context, branchID string, productIDs []string) (map[string]ProductSnapshot, error) {
	result := make(map[string]ProductSnapshot, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var products []entity.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
		return nil, classify(err)
	}

	var stocks []entity.BranchStock
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND product_id IN ?", branchID, productIDs).
		Find(&stocks).Error
	if err != nil {
		return nil, classify(err)
	}
	stockByProduct := make(map[string]entity.BranchStock, len(stocks))
	for _, s := range stocks {
		stockByProduct[s.ProductID] = s
	}

	for _, p := range products {
		snap := ProductSnapshot{Product: p}
		if s, ok := stockByProduct[p.ID]; ok {
			snap.CurrentStock = s.Quantity
			snap.MinStock = s.MinStock
		}
		result[p.ID] = snap
	}
	return result, nil
}
