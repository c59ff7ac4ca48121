// ABOUTME: Opportunity service coordinating guard, gateway writes, and the aggregate cache
// ABOUTME: Every mutation is validated, persisted, then merged into the local store
package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/dealflow/access"
	"github.com/harperreed/dealflow/aggregate"
	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/guard"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/pipeline"
)

var (
	ErrInvalidValue        = errors.New("opportunity value must not be negative")
	ErrNameRequired        = errors.New("opportunity name is required")
	ErrInvalidStatus       = errors.New("invalid opportunity status")
	ErrInvalidDate         = errors.New("dates must use YYYY-MM-DD")
	ErrOpportunityNotFound = errors.New("opportunity not found")
	ErrTaskNotFound        = errors.New("task not found")
)

type Options struct {
	Actor  access.Actor
	Policy access.Policy
	// CascadeContactDelete removes an opportunity's contact on delete
	// when no other opportunity still references it.
	CascadeContactDelete bool
	PageSize             int
	Logger               *log.Logger
	Now                  func() time.Time
}

// Service is the entry point for every opportunity mutation.
type Service struct {
	gw      gateway.Gateway
	store   *aggregate.Store
	stages  *pipeline.Store
	guard   *guard.Guard
	actor   access.Actor
	cascade bool
	logger  *log.Logger
	now     func() time.Time
}

func NewService(gw gateway.Gateway, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.Policy.Legacy == "" {
		opts.Policy = access.DefaultPolicy
	}

	gw = gateway.WithSortFallback(gw)
	return &Service{
		gw: gw,
		store: aggregate.New(gw,
			aggregate.WithPageSize(opts.PageSize),
			aggregate.WithLogger(logger),
			aggregate.WithClock(now),
		),
		stages:  pipeline.NewStore(gw),
		guard:   guard.New(opts.Policy),
		actor:   opts.Actor,
		cascade: opts.CascadeContactDelete,
		logger:  logger.With("component", "crm"),
		now:     now,
	}
}

func (s *Service) Store() *aggregate.Store {
	return s.store
}

func (s *Service) Gateway() gateway.Gateway {
	return s.gw
}

func (s *Service) Actor() access.Actor {
	return s.actor
}

func validateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

func validateUpdate(u models.OpportunityUpdate) error {
	if u.Value != nil && *u.Value < 0 {
		return ErrInvalidValue
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return ErrNameRequired
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
	}
	if u.FollowUpDate != nil {
		return validateDate(*u.FollowUpDate)
	}
	return nil
}

// Opportunity reads the stored record.
func (s *Service) Opportunity(ctx context.Context, id string) (models.Opportunity, error) {
	doc, err := s.gw.Get(ctx, models.CollectionOpportunities, id)
	if errors.Is(err, gateway.ErrNotFound) {
		return models.Opportunity{}, fmt.Errorf("%w: %s", ErrOpportunityNotFound, id)
	}
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("failed to get opportunity: %w", err)
	}

	var opp models.Opportunity
	if err := gateway.Decode(doc, &opp); err != nil {
		return models.Opportunity{}, err
	}
	return opp, nil
}

// CreateOpportunity stores a new opportunity. Missing stage and status
// default to the first stage and Open.
func (s *Service) CreateOpportunity(ctx context.Context, opp models.Opportunity) (models.Opportunity, error) {
	opp.Name = strings.TrimSpace(opp.Name)
	if opp.Name == "" {
		return models.Opportunity{}, ErrNameRequired
	}
	if opp.Value < 0 {
		return models.Opportunity{}, ErrInvalidValue
	}
	if err := validateDate(opp.FollowUpDate); err != nil {
		return models.Opportunity{}, err
	}

	stages, err := s.stages.Load(ctx)
	if err != nil {
		return models.Opportunity{}, err
	}
	if opp.Stage == "" && len(stages) > 0 {
		opp.Stage = stages[0].ID
	}
	if opp.Status == "" {
		opp.Status = models.StatusOpen
	}
	if !opp.Status.Valid() {
		return models.Opportunity{}, fmt.Errorf("%w: %q", ErrInvalidStatus, opp.Status)
	}

	opp.Tags = models.NormalizeTags(opp.Tags)
	if len(opp.Tasks) > 0 {
		prepared, err := s.guard.Prepare(models.Opportunity{}, models.OpportunityUpdate{Tasks: &opp.Tasks}, s.actor)
		if err != nil {
			return models.Opportunity{}, err
		}
		opp.Tasks = *prepared.Tasks
	}
	now := s.now().UTC()
	for i := range opp.Notes {
		if opp.Notes[i].ID == "" {
			opp.Notes[i].ID = models.NewID()
		}
		if opp.Notes[i].CreatedAt.IsZero() {
			opp.Notes[i].CreatedAt = now
		}
	}

	opp.CreatedAt = now
	opp.UpdatedAt = now
	opp.ID = ""

	doc, err := gateway.Encode(opp)
	if err != nil {
		return models.Opportunity{}, err
	}
	created, err := s.gw.Create(ctx, models.CollectionOpportunities, doc)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("failed to create opportunity: %w", err)
	}
	opp.ID = created.ID

	s.store.Apply(opp)
	s.refreshCounts(ctx, stages)
	s.logger.Info("opportunity created", "id", opp.ID, "stage", opp.Stage, "actor", s.actor)
	return opp, nil
}

// UpdateOpportunity validates and persists a partial update. A task-list
// change that the actor may not make rejects the whole update.
func (s *Service) UpdateOpportunity(ctx context.Context, id string, update models.OpportunityUpdate) (models.Opportunity, error) {
	if err := validateUpdate(update); err != nil {
		return models.Opportunity{}, err
	}

	current, err := s.Opportunity(ctx, id)
	if err != nil {
		return models.Opportunity{}, err
	}

	prepared, err := s.guard.Prepare(current, update, s.actor)
	if err != nil {
		s.logger.Warn("update rejected", "id", id, "actor", s.actor, "err", err)
		return models.Opportunity{}, err
	}
	if prepared.IsEmpty() {
		return current, nil
	}

	now := s.now().UTC()
	fields := prepared.Fields()
	fields["updatedAt"] = now
	if err := s.gw.Update(ctx, models.CollectionOpportunities, id, fields); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return models.Opportunity{}, fmt.Errorf("%w: %s", ErrOpportunityNotFound, id)
		}
		return models.Opportunity{}, fmt.Errorf("failed to update opportunity: %w", err)
	}

	prepared.ApplyTo(&current, now)
	s.store.Apply(current)

	if prepared.TouchesStageOrValue() {
		if stages, err := s.stages.Load(ctx); err == nil {
			s.refreshCounts(ctx, stages)
		}
	}
	return current, nil
}

// MoveStage is the drag path: it also applies the closed-stage status rule.
func (s *Service) MoveStage(ctx context.Context, id, stageID string) (models.Opportunity, error) {
	stages, err := s.stages.Load(ctx)
	if err != nil {
		return models.Opportunity{}, err
	}
	if !stages.Has(stageID) {
		return models.Opportunity{}, fmt.Errorf("%w: %s", pipeline.ErrUnknownStage, stageID)
	}

	current, err := s.Opportunity(ctx, id)
	if err != nil {
		return models.Opportunity{}, err
	}
	return s.UpdateOpportunity(ctx, id, pipeline.MoveUpdate(current, stageID))
}

// SetFollowUp schedules a follow-up. The new date is always unread.
func (s *Service) SetFollowUp(ctx context.Context, id, date string) (models.Opportunity, error) {
	return s.UpdateOpportunity(ctx, id, models.OpportunityUpdate{FollowUpDate: models.Ptr(date)})
}

func (s *Service) MarkFollowUpRead(ctx context.Context, id string) (models.Opportunity, error) {
	return s.UpdateOpportunity(ctx, id, models.OpportunityUpdate{FollowUpRead: models.Ptr(true)})
}

// DeleteOpportunity removes the record and, when cascading is on, its
// contact if nothing else references it.
func (s *Service) DeleteOpportunity(ctx context.Context, id string) error {
	current, err := s.Opportunity(ctx, id)
	if err != nil {
		return err
	}

	if err := s.gw.Delete(ctx, models.CollectionOpportunities, id); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrOpportunityNotFound, id)
		}
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	s.store.Evict(id)

	if s.cascade && current.ContactID != "" {
		if err := s.deleteOrphanContact(ctx, current.ContactID); err != nil {
			s.logger.Warn("contact cascade failed", "contact", current.ContactID, "err", err)
		}
	}

	if stages, err := s.stages.Load(ctx); err == nil {
		s.refreshCounts(ctx, stages)
	}
	s.logger.Info("opportunity deleted", "id", id, "actor", s.actor)
	return nil
}

func (s *Service) deleteOrphanContact(ctx context.Context, contactID string) error {
	refs, err := s.gw.Query(ctx, models.CollectionOpportunities, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("contactId", contactID)},
		Limit:   1,
	})
	if err != nil {
		return err
	}
	if len(refs.Docs) > 0 {
		return nil
	}

	err = s.gw.Delete(ctx, models.CollectionContacts, contactID)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil
	}
	return err
}

// BulkDelete deletes each id, continuing past failures. It returns how many
// were deleted and the joined errors.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (int, error) {
	var errs []error
	deleted := 0
	for _, id := range ids {
		if err := s.DeleteOpportunity(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}

func (s *Service) refreshCounts(ctx context.Context, stages pipeline.List) {
	if _, err := s.store.RefreshStageCounts(ctx, stages); err != nil {
		s.logger.Warn("stage counts not refreshed", "err", err)
	}
}

// RefreshStageCounts recomputes per-stage totals over the full collection.
func (s *Service) RefreshStageCounts(ctx context.Context) ([]aggregate.StageCount, error) {
	stages, err := s.stages.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.RefreshStageCounts(ctx, stages)
}

func (s *Service) Dashboard(ctx context.Context, days int) (aggregate.DashboardStats, error) {
	stages, err := s.stages.Load(ctx)
	if err != nil {
		return aggregate.DashboardStats{}, err
	}
	return s.store.Dashboard(ctx, days, stages)
}

// ListOpportunities pages opportunities newest first, optionally by stage,
// and merges the page into the cache.
func (s *Service) ListOpportunities(ctx context.Context, stageID, cursor string, limit int) ([]models.Opportunity, string, error) {
	q := gateway.Query{
		Order:  &gateway.Order{Field: "createdAt", Desc: true},
		Cursor: cursor,
		Limit:  limit,
	}
	if stageID != "" {
		q.Filters = []gateway.Filter{gateway.Eq("stage", stageID)}
	}

	page, err := s.gw.Query(ctx, models.CollectionOpportunities, q)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list opportunities: %w", err)
	}

	opps := make([]models.Opportunity, 0, len(page.Docs))
	for _, doc := range page.Docs {
		var opp models.Opportunity
		if err := gateway.Decode(doc, &opp); err != nil {
			return nil, "", err
		}
		opps = append(opps, opp)
	}
	s.store.Merge(opps...)
	return opps, page.NextCursor, nil
}
