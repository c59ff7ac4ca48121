// ABOUTME: Demo fixture data for the in-memory gateway
// ABOUTME: Seeds contacts, opportunities across stages, tasks, and today's appointments
package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

// DemoActor is the identity the demo data is authored by.
const DemoActor = "demo@dealflow.local"

// SeedDemo fills gw with a small sample pipeline relative to now.
func SeedDemo(ctx context.Context, gw gateway.Gateway, now time.Time) error {
	contacts := []models.Contact{
		{ID: "demo-contact-1", Name: "Ada Lovelace", Email: "ada@analytical.io", Company: "Analytical Engines"},
		{ID: "demo-contact-2", Name: "Grace Hopper", Email: "grace@cobol.dev", Company: "Compiler Co"},
		{ID: "demo-contact-3", Name: "Alan Turing", Email: "alan@bletchley.uk", Company: "Bletchley Labs"},
	}
	for _, c := range contacts {
		if err := create(ctx, gw, models.CollectionContacts, c); err != nil {
			return err
		}
	}

	today := now.Format(models.DateLayout)
	deals := []struct {
		name   string
		value  float64
		stage  string
		status models.Status
		ago    int
	}{
		{"Analytical Engines pilot", 12000, "2", models.StatusOpen, 2},
		{"Compiler Co renewal", 8500, "6", models.StatusOpen, 5},
		{"Bletchley Labs expansion", 40000, "7", models.StatusOpen, 9},
		{"Difference Engine support", 3000, models.StageClosedID, models.StatusWon, 14},
		{"Harvard Mark I retrofit", 15000, "4", models.StatusLost, 21},
		{"Enigma audit", 22000, "1", models.StatusOpen, 1},
	}

	for i, d := range deals {
		created := now.AddDate(0, 0, -d.ago).UTC()
		opp := models.Opportunity{
			ID:        fmt.Sprintf("demo-opp-%d", i+1),
			Name:      d.name,
			Value:     d.value,
			Stage:     d.stage,
			Status:    d.status,
			Source:    "demo",
			ContactID: contacts[i%len(contacts)].ID,
			Tags:      []string{"demo"},
			Tasks: []models.Task{
				{ID: fmt.Sprintf("demo-task-%d-1", i+1), Title: "Send proposal", CreatedBy: DemoActor, Assignee: DemoActor, DueDate: now.AddDate(0, 0, 3).Format(models.DateLayout)},
				{ID: fmt.Sprintf("demo-task-%d-2", i+1), Title: "Schedule call", CreatedBy: DemoActor, IsCompleted: i%2 == 0},
			},
			Notes:     []models.Note{{ID: fmt.Sprintf("demo-note-%d", i+1), Content: "Imported from demo data", CreatedAt: created}},
			CreatedAt: created,
			UpdatedAt: created,
		}
		if i == 0 {
			opp.FollowUpDate = today
		}
		if err := create(ctx, gw, models.CollectionOpportunities, opp); err != nil {
			return err
		}
	}

	appointments := []models.Appointment{
		{ID: "demo-appt-1", Title: "Discovery call with Ada", Date: today, Time: now.Add(2 * time.Minute).Format(models.TimeLayout), ContactID: contacts[0].ID, Source: models.AppointmentSourceManual},
		{ID: "demo-appt-2", Title: "Contract review", Date: now.AddDate(0, 0, 1).Format(models.DateLayout), Time: "10:00", ContactID: contacts[1].ID, Location: "Zoom", Source: models.AppointmentSourceManual},
	}
	for _, a := range appointments {
		if err := create(ctx, gw, models.CollectionAppointments, a); err != nil {
			return err
		}
	}

	return nil
}

func create(ctx context.Context, gw gateway.Gateway, collection string, v any) error {
	doc, err := gateway.Encode(v)
	if err != nil {
		return err
	}
	if _, err := gw.Create(ctx, collection, doc); err != nil {
		return fmt.Errorf("failed to seed %s: %w", collection, err)
	}
	return nil
}
