package services

import (
	"context"
	"fmt"

	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/monitoring"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// BookingCost is what one consultation request costs the client
	BookingCost = 1
	// TopUpAmount is what the manual top-up endpoint adds
	TopUpAmount = 10
)

// Ledger keeps one consultation point balance per user.
// It runs against whatever handle it was built with, so pass a transaction to pair
// a balance change with the write that triggered it. Debit and Credit leave the point
// counters to the caller, which knows when its transaction committed.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a ledger over db (or a transaction)
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// GetOrCreate returns the user's balance row, inserting a zero balance on first access
func (l *Ledger) GetOrCreate(ctx context.Context, userID uint) (*models.ConsultationPoint, error) {
	db := l.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.ConsultationPoint{UserID: userID, Balance: 0}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to initialise points for user %d: %w", userID, err)
	}

	var cp models.ConsultationPoint
	if err := db.Where("user_id = ?", userID).First(&cp).Error; err != nil {
		return nil, fmt.Errorf("failed to load points for user %d: %w", userID, err)
	}
	return &cp, nil
}

// Debit subtracts n points, failing with ErrInsufficientBalance when the balance is below n.
// The check and the subtraction are one conditional UPDATE.
func (l *Ledger) Debit(ctx context.Context, userID uint, n int) (*models.ConsultationPoint, error) {
	if n <= 0 {
		return nil, validationError("INVALID_AMOUNT", "Debit amount must be positive, got %d", n)
	}
	if _, err := l.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	result := l.db.WithContext(ctx).
		Model(&models.ConsultationPoint{}).
		Where("user_id = ? AND balance >= ?", userID, n).
		Update("balance", gorm.Expr("balance - ?", n))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to debit points for user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInsufficientBalance
	}

	return l.GetOrCreate(ctx, userID)
}

// Credit adds n points unconditionally
func (l *Ledger) Credit(ctx context.Context, userID uint, n int) (*models.ConsultationPoint, error) {
	if n <= 0 {
		return nil, validationError("INVALID_AMOUNT", "Credit amount must be positive, got %d", n)
	}
	if _, err := l.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	err := l.db.WithContext(ctx).
		Model(&models.ConsultationPoint{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", n)).Error
	if err != nil {
		return nil, fmt.Errorf("failed to credit points for user %d: %w", userID, err)
	}

	return l.GetOrCreate(ctx, userID)
}

// TopUp credits TopUpAmount as a standalone write. Build the ledger over the
// database, not a transaction, since the credit is counted as soon as it lands.
func (l *Ledger) TopUp(ctx context.Context, userID uint) (*models.ConsultationPoint, error) {
	cp, err := l.Credit(ctx, userID, TopUpAmount)
	if err != nil {
		return nil, err
	}
	monitoring.PointsCredited.Add(TopUpAmount)
	return cp, nil
}
