package sequencer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/rallylog/internal/domain/model"
)

// Mutation kinds, also used as metric labels.
const (
	KindInsert = "insert"
	KindUpdate = "update"
	KindDelete = "delete"
	KindReplay = "replay"
)

// Mutation is a single structural change to a match's rally list.
type Mutation interface {
	Kind() string
	apply(rallies []model.Rally) ([]model.Rally, error)
}

// Insert places Rally at the 1-based Position. A nil Position appends.
type Insert struct {
	Rally    model.Rally
	Position *int
}

// Update replaces the editable fields of the rally with RallyID.
type Update struct {
	RallyID string
	Fields  model.RallyFields
}

// Delete removes the rally with RallyID.
type Delete struct {
	RallyID string
}

// Replay leaves the list as is and only re-derives sequence and scores.
type Replay struct{}

func (Insert) Kind() string { return KindInsert }
func (Update) Kind() string { return KindUpdate }
func (Delete) Kind() string { return KindDelete }
func (Replay) Kind() string { return KindReplay }

func (m Insert) apply(rallies []model.Rally) ([]model.Rally, error) {
	if err := m.Rally.Fields().Validate(); err != nil {
		return nil, fmt.Errorf("insert: %w: %w", ErrInvalidInput, err)
	}
	if m.Rally.ID != "" && indexOf(rallies, m.Rally.ID) >= 0 {
		return nil, fmt.Errorf("insert: %w: duplicate rally id %s", ErrInvalidInput, m.Rally.ID)
	}
	pos := clamp(m.Position, len(rallies))
	return slices.Insert(rallies, pos-1, m.Rally), nil
}

func (m Update) apply(rallies []model.Rally) ([]model.Rally, error) {
	i := indexOf(rallies, m.RallyID)
	if i < 0 {
		return nil, fmt.Errorf("update %s: %w", m.RallyID, ErrNotFound)
	}
	if err := m.Fields.Validate(); err != nil {
		return nil, fmt.Errorf("update %s: %w: %w", m.RallyID, ErrInvalidInput, err)
	}
	rallies[i].Apply(m.Fields)
	return rallies, nil
}

func (m Delete) apply(rallies []model.Rally) ([]model.Rally, error) {
	i := indexOf(rallies, m.RallyID)
	if i < 0 {
		return nil, fmt.Errorf("delete %s: %w", m.RallyID, ErrNotFound)
	}
	return slices.Delete(rallies, i, i+1), nil
}

func (Replay) apply(rallies []model.Rally) ([]model.Rally, error) { return rallies, nil }

// clamp maps an optional position into [1, count+1].
func clamp(position *int, count int) int {
	if position == nil {
		return count + 1
	}
	return min(max(*position, 1), count+1)
}

func indexOf(rallies []model.Rally, id string) int {
	return slices.IndexFunc(rallies, func(r model.Rally) bool { return r.ID == id })
}

// ParsePosition reads an insert position from form or query input.
// Blank input means append and yields nil.
func ParsePosition(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("position: %w: %w", ErrInvalidInput,
			&model.FieldError{Field: "position", Message: fmt.Sprintf("not an integer: %q", raw)})
	}
	return &n, nil
}
