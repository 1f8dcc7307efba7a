// Package tests contains helpers shared by the test suites of the other packages.
package tests

import (
	"context"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/prior-it/bestiary/core"
)

var Faker = gofakeit.New(rand.Uint64())

// MonsterData returns random data for a new monster.
func MonsterData() core.MonsterData {
	return core.MonsterData{
		Name:        Faker.Name(),
		Kind:        Faker.Animal(),
		Description: Faker.Sentence(8),
	}
}

func CreateMonster(service core.MonsterService) *core.Monster {
	monster, err := service.CreateMonster(context.Background(), MonsterData())
	if err != nil {
		log.Fatalf("cannot create monster: %v", err)
	}
	return monster
}

func DeleteAllMonsters(service core.MonsterService) {
	ctx := context.Background()
	monsters, err := service.ListMonsters(ctx)
	Check(err)
	for _, monster := range monsters {
		Check(service.DeleteMonster(ctx, monster.ID))
	}
}

// WriteFiles creates a temporary directory containing the specified files (path -> contents)
// and returns its path.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		Check(os.MkdirAll(filepath.Dir(path), 0o755))
		Check(os.WriteFile(path, []byte(contents), 0o600))
	}
	return dir
}

func Check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
