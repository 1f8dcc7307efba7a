// Package memory contains in-process implementations of the core services.
// Nothing stored here survives a restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/prior-it/bestiary/core"
)

func NewMonsterService() *MonsterService {
	return &MonsterService{
		monsters: make(map[core.MonsterID]core.Monster),
		now:      time.Now,
	}
}

// In-memory implementation of the core MonsterService interface.
type MonsterService struct {
	mu       sync.RWMutex
	monsters map[core.MonsterID]core.Monster
	order    []core.MonsterID
	now      func() time.Time
}

// Force struct to implement the core interface
var _ core.MonsterService = &MonsterService{}

// ListMonsters implements core.MonsterService.
func (m *MonsterService) ListMonsters(_ context.Context) ([]core.Monster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	monsters := make([]core.Monster, 0, len(m.order))
	for _, id := range m.order {
		monsters = append(monsters, m.monsters[id])
	}
	return monsters, nil
}

// GetMonster implements core.MonsterService.
func (m *MonsterService) GetMonster(_ context.Context, id core.MonsterID) (*core.Monster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	monster, ok := m.monsters[id]
	if !ok {
		return nil, fmt.Errorf("monster %v: %w", id, core.ErrNotFound)
	}
	return &monster, nil
}

// CreateMonster implements core.MonsterService.
func (m *MonsterService) CreateMonster(
	_ context.Context,
	data core.MonsterData,
) (*core.Monster, error) {
	monster := core.Monster{
		ID:          core.NewMonsterID(),
		Name:        data.Name,
		Kind:        data.Kind,
		Description: data.Description,
		Created:     m.now().UTC(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.monsters[monster.ID]; exists {
		return nil, fmt.Errorf("monster %v: %w", monster.ID, core.ErrConflict)
	}
	m.monsters[monster.ID] = monster
	m.order = append(m.order, monster.ID)
	return &monster, nil
}

// UpdateMonster implements core.MonsterService.
func (m *MonsterService) UpdateMonster(
	_ context.Context,
	id core.MonsterID,
	data core.MonsterData,
) (*core.Monster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	monster, ok := m.monsters[id]
	if !ok {
		return nil, fmt.Errorf("monster %v: %w", id, core.ErrNotFound)
	}
	monster.Name = data.Name
	monster.Kind = data.Kind
	monster.Description = data.Description
	m.monsters[id] = monster
	return &monster, nil
}

// DeleteMonster implements core.MonsterService.
func (m *MonsterService) DeleteMonster(_ context.Context, id core.MonsterID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.monsters[id]; !ok {
		return fmt.Errorf("monster %v: %w", id, core.ErrNotFound)
	}
	delete(m.monsters, id)
	m.order = slices.DeleteFunc(m.order, func(other core.MonsterID) bool {
		return other == id
	})
	return nil
}
