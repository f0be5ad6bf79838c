package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pennywise/internal/core"
)

type VaultTestSuite struct {
	suite.Suite
	vault *Vault
	ctx   context.Context
}

func (s *VaultTestSuite) SetupTest() {
	dbPath := filepath.Join(s.T().TempDir(), "vault.db")
	vault, err := NewVault(dbPath, nil)
	require.NoError(s.T(), err, "failed to open test vault")
	s.vault = vault
	s.ctx = context.Background()
}

func (s *VaultTestSuite) TearDownTest() {
	if s.vault != nil {
		s.vault.Close()
	}
}

func (s *VaultTestSuite) TestLoadSessionEmpty() {
	u, err := s.vault.LoadSession(s.ctx)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), u)
}

func (s *VaultTestSuite) TestSaveAndLoadSession() {
	user := core.User{
		ID:                   "42",
		Username:             "alice@example.com",
		Password:             "$2a$10$secret-hash",
		CreatedAt:            1700000000000,
		BudgetLimit:          150,
		NotificationsEnabled: true,
	}
	require.NoError(s.T(), s.vault.SaveSession(s.ctx, user))

	loaded, err := s.vault.LoadSession(s.ctx)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), loaded)
	assert.Equal(s.T(), "42", loaded.ID)
	assert.Equal(s.T(), "alice@example.com", loaded.Username)
	assert.Equal(s.T(), 150.0, loaded.BudgetLimit)
	assert.Empty(s.T(), loaded.Password, "password hash must never be persisted")
}

func (s *VaultTestSuite) TestSaveSessionOverwrites() {
	require.NoError(s.T(), s.vault.SaveSession(s.ctx, core.User{ID: "1", Username: "a@b.co"}))
	require.NoError(s.T(), s.vault.SaveSession(s.ctx, core.User{ID: "2", Username: "c@d.co"}))

	loaded, err := s.vault.LoadSession(s.ctx)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), loaded)
	assert.Equal(s.T(), "2", loaded.ID)
}

func (s *VaultTestSuite) TestClearSessionIdempotent() {
	// Clearing an empty vault is fine.
	require.NoError(s.T(), s.vault.ClearSession(s.ctx))

	require.NoError(s.T(), s.vault.SaveSession(s.ctx, core.User{ID: "1", Username: "a@b.co"}))
	require.NoError(s.T(), s.vault.ClearSession(s.ctx))
	require.NoError(s.T(), s.vault.ClearSession(s.ctx))

	loaded, err := s.vault.LoadSession(s.ctx)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), loaded)
}

func (s *VaultTestSuite) TestCorruptSessionTreatedAsSignedOut() {
	_, err := s.vault.db.ExecContext(s.ctx,
		`INSERT INTO session (id, payload, saved_at) VALUES (1, 'not json', 0)`)
	require.NoError(s.T(), err)

	loaded, err := s.vault.LoadSession(s.ctx)
	require.NoError(s.T(), err, "unparsable session is no-session, not an error")
	assert.Nil(s.T(), loaded)
}

func (s *VaultTestSuite) TestSnapshotRoundTrip() {
	items := []core.Expense{
		{ID: "1", Title: "Coffee", Amount: 4.5, OwnerID: "42", Category: core.CategoryFood},
		{ID: "2", Title: "Bus", Amount: 2.75, OwnerID: "42"},
	}
	require.NoError(s.T(), s.vault.SaveSnapshot(s.ctx, "42", items))

	loaded, savedAt, err := s.vault.LoadSnapshot(s.ctx, "42")
	require.NoError(s.T(), err)
	require.Len(s.T(), loaded, 2)
	assert.Equal(s.T(), "Coffee", loaded[0].Title)
	assert.False(s.T(), savedAt.IsZero())
}

func (s *VaultTestSuite) TestSnapshotReplacedPerOwner() {
	require.NoError(s.T(), s.vault.SaveSnapshot(s.ctx, "42", []core.Expense{{ID: "1"}, {ID: "2"}}))
	require.NoError(s.T(), s.vault.SaveSnapshot(s.ctx, "42", []core.Expense{{ID: "3"}}))
	require.NoError(s.T(), s.vault.SaveSnapshot(s.ctx, "7", []core.Expense{{ID: "9"}}))

	loaded, _, err := s.vault.LoadSnapshot(s.ctx, "42")
	require.NoError(s.T(), err)
	require.Len(s.T(), loaded, 1)
	assert.Equal(s.T(), "3", loaded[0].ID)

	other, _, err := s.vault.LoadSnapshot(s.ctx, "7")
	require.NoError(s.T(), err)
	require.Len(s.T(), other, 1)
}

func (s *VaultTestSuite) TestSnapshotMissingOwner() {
	loaded, savedAt, err := s.vault.LoadSnapshot(s.ctx, "nobody")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), loaded)
	assert.True(s.T(), savedAt.IsZero())
}

func TestVaultTestSuite(t *testing.T) {
	suite.Run(t, new(VaultTestSuite))
}
