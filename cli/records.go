// ABOUTME: Contact and appointment CLI commands
// ABOUTME: Contacts link opportunities; appointments feed the reminder scanner
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/dealflow/models"
)

func AddContactCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("add-contact")
	name := fs.String("name", "", "Contact name (required)")
	email := fs.String("email", "", "Email")
	phone := fs.String("phone", "", "Phone")
	company := fs.String("company", "", "Company")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := env.Svc.CreateContact(ctx, models.Contact{Name: *name, Email: *email, Phone: *phone, Company: *company})
	if err != nil {
		return err
	}
	env.printf("✓ Contact added: %s (ID: %s)\n", c.Name, c.ID)
	return nil
}

func ListContactsCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("list-contacts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	contacts, err := env.Svc.Contacts(ctx)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		env.printf("No contacts found\n")
		return nil
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tCOMPANY\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t-------\t--")
	for _, c := range contacts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, dash(c.Email), dash(c.Company), c.ID)
	}
	return w.Flush()
}

func AddAppointmentCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("add-appointment")
	title := fs.String("title", "", "Title (required)")
	date := fs.String("date", time.Now().Format(models.DateLayout), "Date (YYYY-MM-DD)")
	at := fs.String("time", "", "Time (HH:MM, required)")
	contact := fs.String("contact", "", "Contact id")
	location := fs.String("location", "", "Location")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" || *at == "" {
		return fmt.Errorf("--title and --time are required")
	}
	if _, err := time.Parse(models.TimeLayout, *at); err != nil {
		return fmt.Errorf("invalid --time %q: use HH:MM", *at)
	}

	a, err := env.Svc.CreateAppointment(ctx, models.Appointment{
		Title: *title, Date: *date, Time: *at, ContactID: *contact, Location: *location,
	})
	if err != nil {
		return err
	}
	env.printf("✓ Appointment added: %s on %s at %s\n", a.Title, a.Date, a.Time)
	return nil
}

// ListAppointmentsCommand prints appointments for one day (default today).
func ListAppointmentsCommand(ctx context.Context, env *Env, args []string) error {
	fs := newFlagSet("list-appointments")
	date := fs.String("date", time.Now().Format(models.DateLayout), "Date (YYYY-MM-DD), empty for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	appts, err := env.Svc.Appointments(ctx, *date)
	if err != nil {
		return err
	}
	if len(appts) == 0 {
		env.printf("No appointments\n")
		return nil
	}

	w := env.table()
	_, _ = fmt.Fprintln(w, "DATE\tTIME\tTITLE\tLOCATION\tSOURCE")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t--------\t------")
	for _, a := range appts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.Date, a.Time, truncate(a.Title, 40), dash(a.Location), a.Source)
	}
	return w.Flush()
}
