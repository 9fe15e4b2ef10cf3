package core

import "errors"

// SessionCosts holds the four sub-costs recorded for a session.
type SessionCosts struct {
	CourtCost       Money `json:"courtCost"`
	ShuttlecockCost Money `json:"shuttlecockCost"`
	WaterCost       Money `json:"waterCost"`
	OtherCost       Money `json:"otherCost"`
}

// SessionCostBreakdown is derived from SessionCosts on every read. TotalCost
// is always the sum of the four sub-costs and is never settable on its own.
type SessionCostBreakdown struct {
	CourtCost          Money   `json:"courtCost"`
	ShuttlecockCost    Money   `json:"shuttlecockCost"`
	WaterCost          Money   `json:"waterCost"`
	OtherCost          Money   `json:"otherCost"`
	TotalCost          Money   `json:"totalCost"`
	ParticipantCount   int     `json:"participantCount"`
	CostPerParticipant float64 `json:"costPerParticipant"`
}

var ErrNegativeCost = errors.New("session costs cannot be negative")

func (c SessionCosts) Validate() error {
	for _, m := range []Money{c.CourtCost, c.ShuttlecockCost, c.WaterCost, c.OtherCost} {
		if m.Dong < 0 {
			return ErrNegativeCost
		}
		if err := m.checkBound(); err != nil {
			return err
		}
	}
	return nil
}

// Total is the exact sum of the sub-costs.
func (c SessionCosts) Total() Money {
	return c.CourtCost.Add(c.ShuttlecockCost).Add(c.WaterCost).Add(c.OtherCost)
}

// ComputeSessionCost sums the sub-costs and divides the total by the
// participant count. With no participants the per-head cost is 0.
// Sub-costs are assumed non-negative; rejecting negatives is the
// caller's validation job.
func ComputeSessionCost(costs SessionCosts, participants int) SessionCostBreakdown {
	if participants < 0 {
		participants = 0
	}
	total := costs.Total()
	b := SessionCostBreakdown{
		CourtCost:        costs.CourtCost,
		ShuttlecockCost:  costs.ShuttlecockCost,
		WaterCost:        costs.WaterCost,
		OtherCost:        costs.OtherCost,
		TotalCost:        total,
		ParticipantCount: participants,
	}
	if participants > 0 {
		b.CostPerParticipant = total.Float() / float64(participants)
	}
	return b
}
