package giftcards

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

func setupGiftCardsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	cardsTable := `
CREATE TABLE IF NOT EXISTS gift_cards (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  code TEXT NOT NULL UNIQUE,
  initial_amount NUMERIC NOT NULL,
  balance NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  status TEXT NOT NULL DEFAULT 'active',
  purchased_by TEXT,
  purchased_at DATETIME,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactionsTable := `
CREATE TABLE IF NOT EXISTS gift_card_transactions (
  id TEXT PRIMARY KEY,
  gift_card_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  performed_by TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(cardsTable).Error)
	require.NoError(t, db.Exec(transactionsTable).Error)
	require.NoError(t, db.Exec("DELETE FROM gift_cards").Error)
	require.NoError(t, db.Exec("DELETE FROM gift_card_transactions").Error)
	return db
}

func seedCard(t *testing.T, repo Repository, mutate func(*models.GiftCard)) models.GiftCard {
	t.Helper()
	code, err := newCode()
	require.NoError(t, err)

	card := models.GiftCard{
		ID:            uuid.New(),
		MerchantID:    uuid.New(),
		Code:          code,
		InitialAmount: decimal.NewFromInt(50),
		Balance:       decimal.NewFromInt(50),
		Currency:      "USD",
		Status:        enums.GiftCardStatusActive,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	if mutate != nil {
		mutate(&card)
	}
	require.NoError(t, repo.Create(context.Background(), &card))
	return card
}

func TestGetByCode(t *testing.T) {
	repo := NewRepository(setupGiftCardsTestDB(t))
	ctx := context.Background()
	seeded := seedCard(t, repo, nil)

	got, err := repo.GetByCode(ctx, seeded.Code)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, seeded.ID, got.ID)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(50)))

	got, err = repo.GetByCode(ctx, "GW-MISSING")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	repo := NewRepository(setupGiftCardsTestDB(t))
	seeded := seedCard(t, repo, nil)

	dup := models.GiftCard{
		ID:            uuid.New(),
		MerchantID:    uuid.New(),
		Code:          seeded.Code,
		InitialAmount: decimal.NewFromInt(10),
		Balance:       decimal.NewFromInt(10),
		Currency:      "USD",
		Status:        enums.GiftCardStatusActive,
	}
	err := repo.Create(context.Background(), &dup)
	require.Error(t, err)
}

func TestListScopedToMerchantAndStatus(t *testing.T) {
	repo := NewRepository(setupGiftCardsTestDB(t))
	ctx := context.Background()
	merchantID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		i := i
		seedCard(t, repo, func(c *models.GiftCard) {
			c.MerchantID = merchantID
			c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		})
	}
	seedCard(t, repo, func(c *models.GiftCard) {
		c.MerchantID = merchantID
		c.Status = enums.GiftCardStatusRedeemed
	})
	seedCard(t, repo, nil)

	rows, total, err := repo.List(ctx, listParams{MerchantID: &merchantID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, rows, 4)

	status := enums.GiftCardStatusActive
	rows, total, err = repo.List(ctx, listParams{MerchantID: &merchantID, Status: &status, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 3)
}

func TestClaimPurchaseSingleWinner(t *testing.T) {
	repo := NewRepository(setupGiftCardsTestDB(t))
	ctx := context.Background()
	card := seedCard(t, repo, nil)

	now := time.Now().UTC()
	buyerA := uuid.New()
	card.PurchasedBy = &buyerA
	card.PurchasedAt = &now
	card.UpdatedAt = now

	claimed, err := repo.ClaimPurchase(ctx, &card)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A second claim finds purchased_at already set and loses.
	buyerB := uuid.New()
	card.PurchasedBy = &buyerB
	claimed, err = repo.ClaimPurchase(ctx, &card)
	require.NoError(t, err)
	assert.False(t, claimed)

	got, err := repo.GetByID(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PurchasedBy)
	assert.Equal(t, buyerA, *got.PurchasedBy)
}

func TestApplyRedemptionRequiresCurrentBalance(t *testing.T) {
	repo := NewRepository(setupGiftCardsTestDB(t))
	ctx := context.Background()
	card := seedCard(t, repo, nil)

	card.Balance = decimal.NewFromInt(30)
	card.UpdatedAt = time.Now().UTC()
	applied, err := repo.ApplyRedemption(ctx, &card, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, applied)

	// Replaying against the stale balance is rejected.
	card.Balance = decimal.NewFromInt(10)
	applied, err = repo.ApplyRedemption(ctx, &card, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(30)))
}

func TestTransactionsNewestFirst(t *testing.T) {
	repo := NewRepository(setupGiftCardsTestDB(t))
	ctx := context.Background()
	card := seedCard(t, repo, nil)
	base := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, repo.CreateTransaction(ctx, &models.GiftCardTransaction{
		ID:         uuid.New(),
		GiftCardID: card.ID,
		Kind:       enums.TransactionKindPurchase,
		Amount:     decimal.NewFromInt(50),
		CreatedAt:  base,
	}))
	require.NoError(t, repo.CreateTransaction(ctx, &models.GiftCardTransaction{
		ID:         uuid.New(),
		GiftCardID: card.ID,
		Kind:       enums.TransactionKindRedemption,
		Amount:     decimal.NewFromInt(20),
		CreatedAt:  base.Add(time.Minute),
	}))

	rows, err := repo.ListTransactions(ctx, card.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.TransactionKindRedemption, rows[0].Kind)
	assert.Equal(t, enums.TransactionKindPurchase, rows[1].Kind)
}
