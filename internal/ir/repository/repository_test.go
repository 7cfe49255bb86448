package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"github.com/bitfantasy/nimo-hq/internal/ir/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequisition(number string) *entity.Requisition {
	return &entity.Requisition{
		IRNumber:             number,
		RequestingBranchID:   "br-bj",
		RequestingBranchCode: "BJ01",
		RequestType:          entity.RequestTypeRestock,
		Priority:             entity.PriorityNormal,
		Status:               entity.StatusSubmitted,
		RequestedBy:          "u-1",
		RequestedAt:          time.Now().UTC(),
		TotalItems:           2,
		TotalQuantity:        decimal.NewFromInt(15),
		Items: []entity.RequisitionItem{
			{ProductID: "p-2", RequestedQuantity: decimal.NewFromInt(5), Status: entity.ItemStatusPending, SortOrder: 2},
			{ProductID: "p-1", RequestedQuantity: decimal.NewFromInt(10), Status: entity.ItemStatusPending, SortOrder: 1},
		},
	}
}

func TestRequisitionCreateAndFind(t *testing.T) {
	repos := NewRepositories(testutil.SetupTestDB(t))
	ctx := context.Background()

	req := newRequisition("IR-BJ01-2610-0001")
	require.NoError(t, repos.Requisition.Create(ctx, req))
	assert.Len(t, req.ID, 32)
	assert.Equal(t, 1, req.Version)

	got, err := repos.Requisition.FindByID(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "p-1", got.Items[0].ProductID)
	assert.Equal(t, req.ID, got.Items[0].RequisitionID)

	_, err = repos.Requisition.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequisitionDuplicateNumber(t *testing.T) {
	repos := NewRepositories(testutil.SetupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repos.Requisition.Create(ctx, newRequisition("IR-BJ01-2610-0001")))
	err := repos.Requisition.Create(ctx, newRequisition("IR-BJ01-2610-0001"))
	assert.ErrorIs(t, err, ErrDuplicateNumber)
}

func TestMaxNumber(t *testing.T) {
	repos := NewRepositories(testutil.SetupTestDB(t))
	ctx := context.Background()

	maxNumber, err := repos.Requisition.MaxNumber(ctx, "IR-BJ01-2610-")
	require.NoError(t, err)
	assert.Empty(t, maxNumber)

	for _, n := range []string{"IR-BJ01-2610-0002", "IR-BJ01-2610-0010", "IR-BJ01-2611-0100", "IR-SH01-2610-0500"} {
		require.NoError(t, repos.Requisition.Create(ctx, newRequisition(n)))
	}
	maxNumber, err = repos.Requisition.MaxNumber(ctx, "IR-BJ01-2610-")
	require.NoError(t, err)
	assert.Equal(t, "IR-BJ01-2610-0010", maxNumber)
}

func TestMaxNumberMatchesPrefixLiterally(t *testing.T) {
	repos := NewRepositories(testutil.SetupTestDB(t))
	ctx := context.Background()

	for _, n := range []string{"IR-AB1-2610-0007", "IR-A%1-2610-0009", "IR-A-2610-2610-0003", "IR-ab1-2610-0008"} {
		require.NoError(t, repos.Requisition.Create(ctx, newRequisition(n)))
	}

	cases := []struct {
		prefix string
		want   string
	}{
		{"IR-A_1-2610-", ""},
		{"IR-A%1-2610-", "IR-A%1-2610-0009"},
		{"IR-AB1-2610-", "IR-AB1-2610-0007"},
		{"IR-A-2610-", ""},
		{"IR-A-2610-2610-", "IR-A-2610-2610-0003"},
	}
	for _, tc := range cases {
		got, err := repos.Requisition.MaxNumber(ctx, tc.prefix)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.prefix)
	}
}

func TestSaveTransitionVersionCheck(t *testing.T) {
	repos := NewRepositories(testutil.SetupTestDB(t))
	ctx := context.Background()

	req := newRequisition("IR-BJ01-2610-0001")
	require.NoError(t, repos.Requisition.Create(ctx, req))

	loaded, err := repos.Requisition.FindByID(ctx, req.ID)
	require.NoError(t, err)
	loaded.Status = entity.StatusApproved
	for i := range loaded.Items {
		loaded.Items[i].ApprovedQuantity = decimal.NewNullDecimal(loaded.Items[i].RequestedQuantity)
		loaded.Items[i].Status = entity.ItemStatusApproved
	}
	require.NoError(t, repos.Requisition.SaveTransition(ctx, loaded, 1))
	assert.Equal(t, 2, loaded.Version)

	stale := *loaded
	stale.Status = entity.StatusCancelled
	err = repos.Requisition.SaveTransition(ctx, &stale, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err := repos.Requisition.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
	assert.Equal(t, 2, got.Version)
	for _, item := range got.Items {
		assert.Equal(t, entity.ItemStatusApproved, item.Status)
		require.True(t, item.ApprovedQuantity.Valid)
		assert.True(t, item.ApprovedQuantity.Decimal.Equal(item.RequestedQuantity))
	}
}

func TestFindAllFilters(t *testing.T) {
	repos := NewRepositories(testutil.SetupTestDB(t))
	ctx := context.Background()

	a := newRequisition("IR-BJ01-2610-0001")
	b := newRequisition("IR-BJ01-2610-0002")
	b.Priority = entity.PriorityUrgent
	c := newRequisition("IR-SH01-2610-0001")
	c.RequestingBranchID = "br-sh"
	for _, r := range []*entity.Requisition{a, b, c} {
		require.NoError(t, repos.Requisition.Create(ctx, r))
	}

	items, total, err := repos.Requisition.FindAll(ctx, RequisitionFilter{BranchID: "br-bj"}, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 1)

	items, total, err = repos.Requisition.FindAll(ctx, RequisitionFilter{Priority: "urgent"}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Len(t, items[0].Items, 2)
}

func TestFindInterventions(t *testing.T) {
	repos := NewRepositories(testutil.SetupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	for i, l := range []entity.AuditLog{
		{ActorID: "hq", ActorRole: "hq_admin", Action: "requisition.approve", TargetBranchID: "br-bj", IsHQIntervention: true},
		{ActorID: "hq", ActorRole: "hq_admin", Action: "requisition.reject", TargetBranchID: "br-bj", IsHQIntervention: true},
		{ActorID: "mgr", ActorRole: "branch_manager", Action: "requisition.review", TargetBranchID: "br-bj"},
		{ActorID: "hq", ActorRole: "hq_staff", Action: "requisition.cancel", TargetBranchID: "br-sh", IsHQIntervention: true},
		{ActorID: "hq", ActorRole: "hq_admin", Action: "requisition.process", TargetBranchID: "br-bj", IsHQIntervention: true},
	} {
		l := l
		l.TargetType = entity.AuditTargetRequisition
		l.TargetID = "req-1"
		l.CreatedAt = base.Add(time.Duration(i) * 24 * time.Hour)
		require.NoError(t, repos.AuditLog.Append(ctx, &l))
	}

	logs, err := repos.AuditLog.FindInterventions(ctx, "br-bj", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "requisition.process", logs[0].Action)
	assert.Equal(t, "requisition.approve", logs[2].Action)

	logs, err = repos.AuditLog.FindInterventions(ctx, "br-bj", base.Add(12*time.Hour), base.Add(3*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "requisition.reject", logs[0].Action)

	all, err := repos.AuditLog.FindByTarget(ctx, entity.AuditTargetRequisition, "req-1")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "requisition.approve", all[0].Action)
}

func TestMasterDataLookup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()
	testutil.SeedBranch(t, db, "br-bj", "BJ01", false)
	testutil.SeedProduct(t, db, "p-1", "SKU-1", "3.2", "br-bj", "7")
	testutil.SeedProduct(t, db, "p-2", "SKU-2", "1", "", "")

	branch, err := repos.MasterData.FindBranch(ctx, "br-bj")
	require.NoError(t, err)
	assert.Equal(t, "BJ01", branch.Code)

	_, err = repos.MasterData.FindBranch(ctx, "br-none")
	assert.ErrorIs(t, err, ErrNotFound)

	snaps, err := repos.MasterData.FindProducts(ctx, "br-bj", []string{"p-1", "p-2", "p-3"})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, snaps["p-1"].CurrentStock.Equal(decimal.NewFromInt(7)))
	assert.True(t, snaps["p-1"].Product.UnitCost.Equal(decimal.RequireFromString("3.2")))
	assert.True(t, snaps["p-2"].CurrentStock.IsZero())
}
