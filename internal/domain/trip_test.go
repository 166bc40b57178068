package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTripPlan_CheckTotals(t *testing.T) {
	d := decimal.RequireFromString
	plan := TripPlan{
		StoreVisits: []StoreVisit{{
			StoreID: StoreColes,
			Items: []TripLine{
				{ItemID: "milk", Quantity: 2, Price: d("3.20"), LineTotal: d("6.40")},
				{ItemID: "bread", Quantity: 1, Price: d("2.00"), LineTotal: d("2.00")},
			},
			Subtotal: d("8.40"),
		}},
		TotalCost: d("8.40"),
	}
	assert.NoError(t, plan.CheckTotals())

	plan.TotalCost = d("8.41")
	assert.Error(t, plan.CheckTotals())

	plan.TotalCost = d("8.40")
	plan.StoreVisits[0].Items[0].LineTotal = d("3.20")
	assert.Error(t, plan.CheckTotals())
}

func TestPlanItem(t *testing.T) {
	assert.Error(t, PlanItem{Quantity: 1}.Validate("items[0]"))
	assert.Error(t, PlanItem{ProductID: "x"}.Validate("items[0]"))
	assert.NoError(t, PlanItem{ProductID: "x", Quantity: 1}.Validate("items[0]"))

	assert.Equal(t, "x", PlanItem{ProductID: "x"}.Label())
	assert.Equal(t, "x", PlanItem{ProductID: "x"}.Key())
	assert.Equal(t, "Milk", PlanItem{ProductID: "x", Name: "Milk"}.Label())
	assert.Equal(t, "i1", PlanItem{ProductID: "x", ItemID: "i1"}.Key())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$5.20", FormatMoney(decimal.RequireFromString("5.2")))
	assert.Equal(t, "$0.00", FormatMoney(decimal.Zero))
}
