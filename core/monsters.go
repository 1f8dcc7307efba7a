package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/**
 * DOMAIN
 */

type Monster struct {
	ID          MonsterID `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

type MonsterID uuid.UUID

// NewMonsterID returns a new random monster id.
func NewMonsterID() MonsterID {
	return MonsterID(uuid.New())
}

// ParseMonsterID parses a string into a monster id.
func ParseMonsterID(id string) (MonsterID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return MonsterID{}, fmt.Errorf("cannot parse monster id: %w", err)
	}
	return MonsterID(parsed), nil
}

func (id MonsterID) String() string {
	return uuid.UUID(id).String()
}

func (id MonsterID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *MonsterID) UnmarshalText(text []byte) error {
	val, err := ParseMonsterID(string(text))
	if err != nil {
		return err
	}
	*id = val
	return nil
}

// MonsterData contains the editable fields of a monster.
type MonsterData struct {
	Name        string `json:"name"        schema:"name"`
	Kind        string `json:"kind"        schema:"kind"`
	Description string `json:"description" schema:"description"`
}

/**
 * SERVICE
 */

type MonsterService interface {
	// ListMonsters returns all monsters, oldest first.
	ListMonsters(ctx context.Context) ([]Monster, error)
	// GetMonster returns core.ErrNotFound if no monster with the specified id exists.
	GetMonster(ctx context.Context, id MonsterID) (*Monster, error)
	CreateMonster(ctx context.Context, data MonsterData) (*Monster, error)
	// UpdateMonster returns core.ErrNotFound if no monster with the specified id exists.
	UpdateMonster(ctx context.Context, id MonsterID, data MonsterData) (*Monster, error)
	// DeleteMonster returns core.ErrNotFound if no monster with the specified id exists.
	DeleteMonster(ctx context.Context, id MonsterID) error
}
