package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/port/configstore"
)

// RunConfigStoreSuite checks the contract every config store adapter must
// honour. newStore must return an empty store on every call.
func RunConfigStoreSuite(t *testing.T, newStore func(t *testing.T) configstore.Store) {
	t.Helper()

	t.Run("empty_store_reports_not_found", func(t *testing.T) {
		s := newStore(t)
		_, found, err := s.Load(context.Background())
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("save_then_load_round_trips", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		doc := domainrole.DefaultConfig()
		doc.CurrentRoleID = "role_a"
		doc.CustomRoles = append(doc.CustomRoles, SampleRole("role_a"))
		doc.FavoriteRoles = append(doc.FavoriteRoles, "role_a")

		rev, err := s.Save(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), rev)

		got, found, err := s.Load(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, uint64(1), got.Revision)
		assert.Equal(t, "role_a", got.CurrentRoleID)
		require.Len(t, got.CustomRoles, 1)
		assert.Equal(t, "QA Bot", got.CustomRoles[0].DisplayName)
		assert.True(t, got.CustomRoles[0].CreatedAt.Equal(doc.CustomRoles[0].CreatedAt))
		assert.Equal(t, []string{"role_a"}, got.FavoriteRoles)
	})

	t.Run("stale_revision_conflicts", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		doc := domainrole.DefaultConfig()

		_, err := s.Save(ctx, doc)
		require.NoError(t, err)

		// Same revision 0 again: someone else already wrote revision 1.
		_, err = s.Save(ctx, doc)
		assert.ErrorIs(t, err, configstore.ErrConflict)

		doc.Revision = 1
		rev, err := s.Save(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), rev)

		doc.Revision = 1
		_, err = s.Save(ctx, doc)
		assert.ErrorIs(t, err, configstore.ErrConflict)
	})

	t.Run("concurrent_writers_one_wins_per_revision", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Save(ctx, domainrole.DefaultConfig())
		require.NoError(t, err)

		const writers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				doc := domainrole.DefaultConfig()
				doc.Revision = 1
				if _, err := s.Save(ctx, doc); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
	})
}

// SampleRole returns a complete custom role with the given id.
func SampleRole(id string) domainrole.Role {
	created := time.Date(2024, 12, 16, 9, 0, 0, 0, time.UTC)
	return domainrole.Role{
		ID:           id,
		Name:         "qa-bot",
		DisplayName:  "QA Bot",
		Description:  "Finds bugs before users do",
		Category:     domainrole.CategoryTesting,
		SystemPrompt: "You are a meticulous QA engineer.",
		Expertise:    []string{"testing", "Jest"},
		Tags:         []string{"qa"},
		Author:       domainrole.DefaultAuthor,
		Version:      domainrole.DefaultVersion,
		CreatedAt:    created,
		UpdatedAt:    created,
		IsCustom:     true,
	}
}
