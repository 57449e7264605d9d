package editor

import (
	"fmt"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/errs"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/google/uuid"
)

// Repository keeps the open drafts. Drafts live in memory only and are gone
// after a restart.
type Repository interface {
	CreateDraft() (*Controller, error)
	GetDraft(id model.DraftID) (*Controller, error)
	DeleteDraft(id model.DraftID) error
}

type MemoryRepository struct {
	drafts        *cache.Cache[model.DraftID, *Controller]
	newController func(id model.DraftID) *Controller
}

func NewMemoryRepository(newController func(id model.DraftID) *Controller) *MemoryRepository {
	return &MemoryRepository{
		drafts:        cache.NewCache[model.DraftID, *Controller](),
		newController: newController,
	}
}

func (m *MemoryRepository) CreateDraft() (*Controller, error) {
	id := model.DraftID(uuid.NewString())
	ctrl, _ := m.drafts.GetOrSet(id, func() *Controller {
		return m.newController(id)
	})
	return ctrl, nil
}

func (m *MemoryRepository) GetDraft(id model.DraftID) (*Controller, error) {
	if ctrl, ok := m.drafts.Get(id); ok {
		return ctrl, nil
	}
	return nil, fmt.Errorf("draft %s: %w", id, errs.ErrNotFound)
}

func (m *MemoryRepository) DeleteDraft(id model.DraftID) error {
	m.drafts.Delete(id)
	return nil
}

func (m *MemoryRepository) Len() int {
	return m.drafts.Len()
}
