package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// eventBudgetShare is the part of a surplus that may go to events; the
// remaining 15% is held back as a reserve buffer.
var eventBudgetShare = decimal.RequireFromString("0.85")

type (
	ScenarioInput struct {
		Name             string `json:"name,omitempty"`
		MemberCount      int    `json:"memberCount"`
		DuesAmount       Money  `json:"duesAmount"`
		ExpectedExpenses Money  `json:"expectedExpenses"`
	}

	ScenarioOutput struct {
		TotalDuesIncome  Money `json:"totalDuesIncome"`
		ProjectedSurplus Money `json:"projectedSurplus"`
		MaxEventBudget   Money `json:"maxEventBudget"`
		PerMemberBudget  Money `json:"perMemberBudget"`
	}

	ScenarioComparison struct {
		CurrentMembers  int   `json:"currentMembers"`
		CurrentDues     Money `json:"currentDues"`
		MemberCountDiff int   `json:"memberCountDiff"`
		DuesAmountDiff  Money `json:"duesAmountDiff"`
	}

	ScenarioPreview struct {
		Input      ScenarioInput      `json:"input"`
		Output     ScenarioOutput     `json:"output"`
		Comparison ScenarioComparison `json:"comparison"`
	}
)

func (in ScenarioInput) Validate() error {
	if in.MemberCount < 0 {
		return invalid("memberCount cannot be negative")
	}
	if in.DuesAmount.Cents < 0 || in.ExpectedExpenses.Cents < 0 {
		return invalid("amounts cannot be negative")
	}
	return nil
}

// Calculate derives the budget outlook for a what-if input.
func Calculate(in ScenarioInput) ScenarioOutput {
	income := MoneyFromDecimal(in.DuesAmount.Decimal().Mul(decimal.NewFromInt(int64(in.MemberCount))))
	surplus := income.Sub(in.ExpectedExpenses)
	maxBudget := MoneyFromDecimal(surplus.Decimal().Mul(eventBudgetShare)).ClampZero()
	out := ScenarioOutput{
		TotalDuesIncome:  income,
		ProjectedSurplus: surplus,
		MaxEventBudget:   maxBudget,
	}
	if in.MemberCount > 0 {
		out.PerMemberBudget = MoneyFromDecimal(maxBudget.Decimal().Div(decimal.NewFromInt(int64(in.MemberCount))))
	}
	return out
}

// Preview compares an input against the chapter's current state.
func Preview(in ScenarioInput, activeMembers int, settings ChapterSettings) ScenarioPreview {
	return ScenarioPreview{
		Input:  in,
		Output: Calculate(in),
		Comparison: ScenarioComparison{
			CurrentMembers:  activeMembers,
			CurrentDues:     settings.SemesterDuesAmount,
			MemberCountDiff: in.MemberCount - activeMembers,
			DuesAmountDiff:  in.DuesAmount.Sub(settings.SemesterDuesAmount),
		},
	}
}

// NewScenario snapshots an input and its computed output.
func NewScenario(in ScenarioInput, now time.Time) Scenario {
	out := Calculate(in)
	name := in.Name
	if name == "" {
		name = "Scenario " + now.Format("2006-01-02")
	}
	return Scenario{
		Name:             name,
		MemberCount:      in.MemberCount,
		DuesAmount:       in.DuesAmount,
		ExpectedExpenses: in.ExpectedExpenses,
		TotalDuesIncome:  out.TotalDuesIncome,
		ProjectedSurplus: out.ProjectedSurplus,
		MaxEventBudget:   out.MaxEventBudget,
		PerMemberBudget:  out.PerMemberBudget,
		CreatedAt:        now,
	}
}
