// ABOUTME: Status side effects of dragging an opportunity between stages
// ABOUTME: Entering the closed stage marks it Won; leaving it reopens it
package pipeline

import "github.com/harperreed/dealflow/models"

// MoveUpdate builds the update for dragging opp to stage to.
// The status inference only runs on moves; direct status edits may still
// disagree with the stage.
func MoveUpdate(opp models.Opportunity, to string) models.OpportunityUpdate {
	if opp.Stage == to {
		return models.OpportunityUpdate{}
	}

	update := models.OpportunityUpdate{Stage: models.Ptr(to)}
	switch {
	case to == models.StageClosedID:
		update.Status = models.Ptr(models.StatusWon)
	case opp.Stage == models.StageClosedID:
		update.Status = models.Ptr(models.StatusOpen)
	}
	return update
}
