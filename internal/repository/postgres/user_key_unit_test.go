package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUserKeyRepository(t *testing.T) {
	db := &Connection{}
	repo := NewUserKeyRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewSponsorTxRepository(t *testing.T) {
	db := &Connection{}
	repo := NewSponsorTxRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewAuditRepository(t *testing.T) {
	db := &Connection{}
	repo := NewAuditRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewNFTRepository(t *testing.T) {
	db := &Connection{}
	repo := NewNFTRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewStakingRepository(t *testing.T) {
	db := &Connection{}
	repo := NewStakingRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}
