package service

import (
	"context"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"github.com/bitfantasy/nimo-hq/internal/ir/repository"
	"github.com/bitfantasy/nimo-hq/internal/ir/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

var (
	bjManager = Actor{ID: "u-bj-mgr", Role: RoleBranchManager, BranchID: "br-bj", SourceIP: "10.0.0.2"}
	bjStaff   = Actor{ID: "u-bj-staff", Role: RoleBranchStaff, BranchID: "br-bj"}
	shManager = Actor{ID: "u-sh-mgr", Role: RoleBranchManager, BranchID: "br-sh"}
	hqAdmin   = Actor{ID: "u-hq-admin", Role: RoleHQAdmin, BranchID: "br-hq", SourceIP: "10.0.0.1"}
	warehouse = Actor{ID: "u-wh", Role: RoleWarehouse, BranchID: "br-sh"}
)

type fixture struct {
	db    *gorm.DB
	repos *repository.Repositories
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedBranch(t, db, "br-hq", "HQ", true)
	testutil.SeedBranch(t, db, "br-bj", "BJ01", false)
	testutil.SeedBranch(t, db, "br-sh", "SH01", false)
	testutil.SeedProduct(t, db, "p-milk", "SKU-MILK", "2.5", "br-bj", "12")
	testutil.SeedProduct(t, db, "p-cup", "SKU-CUP", "10", "br-bj", "3")

	repos := repository.NewRepositories(db)
	svc := NewServices(repos, nil, Options{}, zap.NewNop())
	svc.Requisition.now = func() time.Time { return fixedNow }
	return &fixture{db: db, repos: repos, svc: svc}
}

func standardRequest() *CreateRequisitionRequest {
	return &CreateRequisitionRequest{
		RequestingBranchID: "br-bj",
		RequestType:        "restock",
		Priority:           "high",
		Items: []CreateRequisitionItem{
			{ProductID: "p-milk", Quantity: decimal.NewFromInt(100)},
			{ProductID: "p-cup", Quantity: decimal.NewFromInt(50)},
		},
	}
}

func (f *fixture) create(t *testing.T) *entity.Requisition {
	t.Helper()
	req, err := f.svc.Requisition.CreateRequisition(context.Background(), standardRequest(), bjManager)
	require.NoError(t, err)
	return req
}

func (f *fixture) transition(t *testing.T, id string, action Action, payload TransitionPayload, actor Actor) *entity.Requisition {
	t.Helper()
	req, err := f.svc.Requisition.Transition(context.Background(), id, action, payload, actor)
	require.NoError(t, err, "action %s", action)
	require.NoError(t, CheckInvariants(req))
	return req
}

func itemByProduct(req *entity.Requisition, productID string) *entity.RequisitionItem {
	for i := range req.Items {
		if req.Items[i].ProductID == productID {
			return &req.Items[i]
		}
	}
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func approvedQty(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}
