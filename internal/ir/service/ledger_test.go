package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/bitfantasy/nimo-hq/internal/ir/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateApprovalsBounds(t *testing.T) {
	items := sampleRequisition(entity.StatusSubmitted).Items

	cases := []struct {
		name string
		qty  string
		ok   bool
	}{
		{"zero", "0", true},
		{"partial", "33.5", true},
		{"full", "100", true},
		{"negative", "-0.001", false},
		{"over", "100.001", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateApprovals(items, []ItemDecision{{ItemID: "it-1", ApprovedQuantity: approvedQty(tc.qty)}})
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		})
	}
}

func TestValidateApprovalsRejectsDuplicates(t *testing.T) {
	items := sampleRequisition(entity.StatusSubmitted).Items
	_, err := ValidateApprovals(items, []ItemDecision{
		{ItemID: "it-1", ApprovedQuantity: approvedQty("1")},
		{ItemID: "it-1", ApprovedQuantity: approvedQty("2")},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecomputeRoundsLineTotals(t *testing.T) {
	req := sampleRequisition(entity.StatusSubmitted)

	// 100 * 1.005 = 100.5, 50 * 2 = 100
	assert.True(t, req.Items[0].EstimatedTotalCost.Equal(dec("100.5")))
	assert.True(t, req.EstimatedValue.Equal(dec("200.5")))
	assert.Equal(t, 2, req.TotalItems)
	assert.True(t, req.TotalQuantity.Equal(dec("150")))

	req.Items[1].EstimatedUnitCost = dec("0.3333")
	Recompute(req)
	assert.True(t, req.Items[1].EstimatedTotalCost.Equal(dec("16.67")), "got %s", req.Items[1].EstimatedTotalCost)
}

func TestCheckInvariants(t *testing.T) {
	req := sampleRequisition(entity.StatusSubmitted)
	require.NoError(t, CheckInvariants(req))

	drifted := cloneRequisition(req)
	drifted.TotalQuantity = drifted.TotalQuantity.Add(decimal.NewFromInt(1))
	assert.Error(t, CheckInvariants(drifted))

	overFulfilled := cloneRequisition(req)
	overFulfilled.Items[0].ApprovedQuantity = decimal.NewNullDecimal(dec("10"))
	overFulfilled.Items[0].FulfilledQuantity = dec("11")
	assert.Error(t, CheckInvariants(overFulfilled))

	unapproved := cloneRequisition(req)
	unapproved.Items[1].FulfilledQuantity = dec("1")
	assert.Error(t, CheckInvariants(unapproved))
}

func TestFulfillSkipsRejectedItems(t *testing.T) {
	items := []entity.RequisitionItem{
		{ID: "a", RequestedQuantity: dec("10"), ApprovedQuantity: decimal.NewNullDecimal(dec("6")), Status: entity.ItemStatusPartiallyApproved},
		{ID: "b", RequestedQuantity: dec("10"), ApprovedQuantity: decimal.NewNullDecimal(decimal.Zero), Status: entity.ItemStatusRejected},
	}
	fulfill(items)
	assert.Equal(t, entity.ItemStatusFulfilled, items[0].Status)
	assert.True(t, items[0].FulfilledQuantity.Equal(dec("6")))
	assert.Equal(t, entity.ItemStatusRejected, items[1].Status)
	assert.True(t, items[1].FulfilledQuantity.IsZero())
}

func randomQuantity(r *rand.Rand, limit int64) decimal.Decimal {
	return decimal.New(r.Int63n(limit*1000)+1, -3)
}

func randomRequisition(r *rand.Rand) *entity.Requisition {
	req := &entity.Requisition{ID: "req-rand", IRNumber: "IR-BJ01-2610-0001", Status: entity.StatusSubmitted}
	for i := 0; i < 1+r.Intn(6); i++ {
		req.Items = append(req.Items, entity.RequisitionItem{
			ID:                fmt.Sprintf("it-%d", i),
			RequestedQuantity: randomQuantity(r, 500),
			EstimatedUnitCost: decimal.New(r.Int63n(100000), -4),
			Status:            entity.ItemStatusPending,
		})
	}
	Recompute(req)
	return req
}

func TestApprovalInvariantsHoldForRandomBatches(t *testing.T) {
	r := rand.New(rand.NewSource(20261019))

	for round := 0; round < 500; round++ {
		req := randomRequisition(r)
		require.NoError(t, CheckInvariants(req), "round %d", round)
		before := cloneRequisition(req)

		var decisions []ItemDecision
		inRange := true
		for _, item := range req.Items {
			if r.Intn(3) == 0 {
				continue
			}
			// 约1/6越界
			qty := decimal.New(r.Int63n(item.RequestedQuantity.Shift(3).IntPart()+1), -3)
			switch r.Intn(12) {
			case 0:
				qty = item.RequestedQuantity.Add(randomQuantity(r, 5))
				inRange = false
			case 1:
				qty = randomQuantity(r, 5).Neg()
				inRange = false
			case 2:
				qty = decimal.Zero
			}
			decisions = append(decisions, ItemDecision{ItemID: item.ID, ApprovedQuantity: decimal.NewNullDecimal(qty)})
		}

		_, err := ValidateApprovals(req.Items, decisions)
		next, applyErr := Apply(req, ActionApprove, TransitionPayload{Items: decisions}, hqAdmin, fixedNow)
		if !inRange {
			assert.ErrorIs(t, err, ErrInvalidQuantity, "round %d", round)
			assert.ErrorIs(t, applyErr, ErrInvalidQuantity, "round %d", round)
			assert.Equal(t, before, req, "round %d: rejected batch must not touch the requisition", round)
			continue
		}
		require.NoError(t, err, "round %d", round)

		approvedAny := false
		for _, d := range decisions {
			if !d.ApprovedQuantity.Decimal.IsZero() {
				approvedAny = true
			}
		}
		if !approvedAny && len(decisions) == len(req.Items) {
			assert.ErrorIs(t, applyErr, ErrValidation, "round %d", round)
			continue
		}
		require.NoError(t, applyErr, "round %d", round)
		require.NoError(t, CheckInvariants(next), "round %d", round)
		assert.True(t, next.TotalQuantity.Equal(req.TotalQuantity), "round %d: totals follow requested quantities", round)
		assert.True(t, next.EstimatedValue.Equal(req.EstimatedValue), "round %d", round)

		partial := false
		for _, item := range next.Items {
			require.True(t, item.ApprovedQuantity.Valid)
			approved := item.ApprovedQuantity.Decimal
			switch {
			case approved.Equal(item.RequestedQuantity):
				assert.Equal(t, entity.ItemStatusApproved, item.Status)
			case approved.IsZero():
				assert.Equal(t, entity.ItemStatusRejected, item.Status)
				partial = true
			default:
				assert.Equal(t, entity.ItemStatusPartiallyApproved, item.Status)
				partial = true
			}
		}
		if partial {
			assert.Equal(t, entity.StatusPartiallyApproved, next.Status, "round %d", round)
		} else {
			assert.Equal(t, entity.StatusApproved, next.Status, "round %d", round)
		}

		for _, a := range []Action{ActionProcess, ActionShip, ActionDeliver, ActionComplete} {
			next, err = Apply(next, a, TransitionPayload{}, warehouse, fixedNow)
			require.NoError(t, err, "round %d action %s", round, a)
			require.NoError(t, CheckInvariants(next), "round %d action %s", round, a)
		}
		for _, item := range next.Items {
			if item.Status == entity.ItemStatusRejected {
				assert.True(t, item.FulfilledQuantity.IsZero())
				continue
			}
			assert.Equal(t, entity.ItemStatusFulfilled, item.Status)
			assert.True(t, item.FulfilledQuantity.Equal(item.ApprovedQuantity.Decimal), "round %d item %s", round, item.ID)
		}
	}
}
