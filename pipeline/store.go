// ABOUTME: Persists the stage list in the settings collection
// ABOUTME: Falls back to the default pipeline until a list is saved
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/dealflow/gateway"
	"github.com/harperreed/dealflow/models"
)

const stagesDocID = "stages"

type stagesDoc struct {
	ID     string         `json:"id,omitempty"`
	Stages []models.Stage `json:"stages"`
}

// Store loads and saves the stage list.
type Store struct {
	gw gateway.Gateway
}

func NewStore(gw gateway.Gateway) *Store {
	return &Store{gw: gw}
}

func (s *Store) Load(ctx context.Context) (List, error) {
	doc, err := s.gw.Get(ctx, models.CollectionSettings, stagesDocID)
	if errors.Is(err, gateway.ErrNotFound) {
		return List(models.DefaultStages()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}

	var sd stagesDoc
	if err := gateway.Decode(doc, &sd); err != nil {
		return nil, err
	}
	if len(sd.Stages) == 0 {
		return List(models.DefaultStages()), nil
	}
	return List(sd.Stages), nil
}

func (s *Store) Save(ctx context.Context, stages List) error {
	doc, err := gateway.Encode(stagesDoc{ID: stagesDocID, Stages: stages})
	if err != nil {
		return err
	}

	err = s.gw.Update(ctx, models.CollectionSettings, stagesDocID, doc.Fields)
	if errors.Is(err, gateway.ErrNotFound) {
		_, err = s.gw.Create(ctx, models.CollectionSettings, doc)
	}
	if err != nil {
		return fmt.Errorf("failed to save stages: %w", err)
	}
	return nil
}

// Edit loads the list, applies fn, and saves the result.
func (s *Store) Edit(ctx context.Context, fn func(List) (List, error)) (List, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
