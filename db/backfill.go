// ABOUTME: Backfill of ids and authors on tasks written before they were tracked
// ABOUTME: Writes straight to the gateway since authorship is otherwise immutable
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

// CountLegacyTasks counts embedded opportunity tasks missing an id or author.
func CountLegacyTasks(db *sql.DB) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM documents d, json_each(d.data, '$.tasks') t
		WHERE d.collection = ?
		  AND (COALESCE(json_extract(t.value, '$.id'), '') = ''
		    OR COALESCE(json_extract(t.value, '$.createdBy'), '') = '')
	`, models.CollectionOpportunities).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count legacy tasks: %w", err)
	}
	return n, nil
}

// BackfillReport summarizes a backfill run.
type BackfillReport struct {
	Opportunities int
	IDs           int
	Authors       int
	// Unresolved tasks still have no author: no assigner and no fallback.
	Unresolved int
}

// BackfillTasks gives every task an id and, where missing, an author: the
// task's assigner if recorded, else fallbackAuthor. With dryRun it only reports.
func BackfillTasks(ctx context.Context, gw gateway.Gateway, fallbackAuthor string, dryRun bool) (BackfillReport, error) {
	var report BackfillReport

	docs, err := gateway.QueryAll(ctx, gw, models.CollectionOpportunities, gateway.Query{})
	if err != nil {
		return report, err
	}

	for _, doc := range docs {
		var opp models.Opportunity
		if err := gateway.Decode(doc, &opp); err != nil {
			logger.Warn("skipping undecodable opportunity", "id", doc.ID, "err", err)
			continue
		}

		changed := false
		tasks := append([]models.Task(nil), opp.Tasks...)
		for i := range tasks {
			if tasks[i].ID == "" {
				tasks[i].ID = models.NewID()
				report.IDs++
				changed = true
			}
			if tasks[i].CreatedBy != "" {
				continue
			}
			author := tasks[i].AssignedBy
			if author == "" {
				author = fallbackAuthor
			}
			if author == "" {
				report.Unresolved++
				continue
			}
			tasks[i].CreatedBy = author
			report.Authors++
			changed = true
		}
		if !changed {
			continue
		}

		report.Opportunities++
		if dryRun {
			continue
		}
		if err := gw.Update(ctx, models.CollectionOpportunities, opp.ID, map[string]any{"tasks": tasks}); err != nil {
			return report, fmt.Errorf("failed to backfill %s: %w", opp.ID, err)
		}
		logger.Debug("backfilled tasks", "opportunity", opp.ID)
	}

	return report, nil
}
