package gormrepo

import (
	"context"
	"errors"

	custodyDomain "loan-escrow/internal/domain/custody"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

func (r *AccountRepository) Get(ctx context.Context, address string) (*custodyDomain.Account, error) {
	return r.get(r.db.WithContext(ctx), address)
}

// GetForUpdate inserts a zero row when the account is new so that the row lock
// always has a row to hold; a missing row locks nothing on MySQL and Postgres.
func (r *AccountRepository) GetForUpdate(ctx context.Context, address string) (*custodyDomain.Account, error) {
	db := r.db.WithContext(ctx)
	seed := custodyDomain.Account{Address: address, Balance: decimal.Zero}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	return r.get(db.Clauses(clause.Locking{Strength: "UPDATE"}), address)
}

func (r *AccountRepository) get(q *gorm.DB, address string) (*custodyDomain.Account, error) {
	var out custodyDomain.Account
	err := q.Where("address = ?", address).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &custodyDomain.Account{Address: address, Balance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Save upserts the balance row.
func (r *AccountRepository) Save(ctx context.Context, a *custodyDomain.Account) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
		}).
		Create(a).Error
}

func (r *AccountRepository) RecordTransfer(ctx context.Context, t *custodyDomain.Transfer) error {
	return r.db.WithContext(ctx).Create(t).Error
}
