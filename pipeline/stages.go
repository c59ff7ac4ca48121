// ABOUTME: Ordered, editable list of pipeline stages
// ABOUTME: Stage ids are stable; rename and recolor only touch presentation
package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/dealflow/models"
)

var (
	ErrUnknownStage   = errors.New("unknown stage")
	ErrTerminalStage  = errors.New("the closed stage cannot be removed")
	ErrEmptyTitle     = errors.New("stage title is required")
	ErrPositionBounds = errors.New("stage position out of range")
)

// List is the ordered stage configuration. Methods return new lists.
type List []models.Stage

// Index returns the position of id, or -1.
func (l List) Index(id string) int {
	for i, s := range l {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Has reports whether id is a configured stage.
func (l List) Has(id string) bool {
	return l.Index(id) >= 0
}

// Resolve returns the stage for id, or the Unknown bucket.
func (l List) Resolve(id string) models.Stage {
	if i := l.Index(id); i >= 0 {
		return l[i]
	}
	return models.Stage{ID: models.StageUnknownID, Title: models.StageUnknownTitle, Color: "#6b7280"}
}

// Bucket maps an opportunity's stage onto a configured id or the Unknown id.
func (l List) Bucket(stageID string) string {
	if l.Has(stageID) {
		return stageID
	}
	return models.StageUnknownID
}

func (l List) clone() List {
	return append(List(nil), l...)
}

// nextID picks one past the highest numeric id so new stages never reuse an old key.
func (l List) nextID() string {
	max := 0
	for _, s := range l {
		if n, err := strconv.Atoi(s.ID); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// Add appends a stage just before the closed stage, or at the end if there is none.
func (l List) Add(title, color string) (List, models.Stage, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return l, models.Stage{}, ErrEmptyTitle
	}

	stage := models.Stage{ID: l.nextID(), Title: title, Color: color}
	out := l.clone()

	pos := out.Index(models.StageClosedID)
	if pos < 0 {
		return append(out, stage), stage, nil
	}
	out = append(out[:pos], append(List{stage}, out[pos:]...)...)
	return out, stage, nil
}

func (l List) Remove(id string) (List, error) {
	if id == models.StageClosedID {
		return l, ErrTerminalStage
	}
	i := l.Index(id)
	if i < 0 {
		return l, fmt.Errorf("%w: %s", ErrUnknownStage, id)
	}
	out := l.clone()
	return append(out[:i], out[i+1:]...), nil
}

// Rename changes the display title. The id, and therefore every
// opportunity's stage reference, is untouched.
func (l List) Rename(id, title string) (List, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return l, ErrEmptyTitle
	}
	i := l.Index(id)
	if i < 0 {
		return l, fmt.Errorf("%w: %s", ErrUnknownStage, id)
	}
	out := l.clone()
	out[i].Title = title
	return out, nil
}

func (l List) Recolor(id, color string) (List, error) {
	i := l.Index(id)
	if i < 0 {
		return l, fmt.Errorf("%w: %s", ErrUnknownStage, id)
	}
	out := l.clone()
	out[i].Color = color
	return out, nil
}

// Reorder moves the stage to position to (0-based).
func (l List) Reorder(id string, to int) (List, error) {
	from := l.Index(id)
	if from < 0 {
		return l, fmt.Errorf("%w: %s", ErrUnknownStage, id)
	}
	if to < 0 || to >= len(l) {
		return l, fmt.Errorf("%w: %d", ErrPositionBounds, to)
	}

	out := l.clone()
	stage := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append(List{stage}, out[to:]...)...)
	return out, nil
}
