package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// sqlite has no FOR UPDATE; strip locking clauses from raw queries.
	stripLocks := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripLocks)
	db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripLocks)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.InvoiceConfiguration{}))
	return db
}

func newService(t *testing.T, nextNumber int64) (*Service, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, db.Create(&domain.InvoiceConfiguration{
		ID:                1,
		NextInvoiceNumber: nextNumber,
		CompanyName:       "Snarf Servicos Ltda",
	}).Error)
	return New(Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()}), db
}

func TestReserveNextNumberIsGapless(t *testing.T) {
	svc, db := newService(t, 500)

	var reserved []int64
	for i := 0; i < 10; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			number, err := svc.ReserveNextNumber(context.Background(), tx)
			if err != nil {
				return err
			}
			reserved = append(reserved, number)
			return nil
		})
		require.NoError(t, err)
	}

	require.Len(t, reserved, 10)
	for i, number := range reserved {
		assert.Equal(t, int64(500+i), number)
	}

	cfg, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(510), cfg.NextInvoiceNumber)
}

func TestReserveNextNumberRollbackDoesNotBurnNumbers(t *testing.T) {
	svc, db := newService(t, 100)
	sentinel := errors.New("abort")

	err := db.Transaction(func(tx *gorm.DB) error {
		number, err := svc.ReserveNextNumber(context.Background(), tx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), number)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	cfg, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), cfg.NextInvoiceNumber)

	// The next successful reservation hands out the same number again.
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		number, err := svc.ReserveNextNumber(context.Background(), tx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), number)
		return nil
	}))
}

func TestReserveNextNumberWithoutConfiguration(t *testing.T) {
	db := openTestDB(t)
	svc := New(Params{DB: db, Log: zap.NewNop(), Repo: repository.Provide()})

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.ReserveNextNumber(context.Background(), tx)
		return err
	})
	require.ErrorIs(t, err, domain.ErrConfigurationMissing)
}

func TestUpdateMovesCounterAndIdentity(t *testing.T) {
	svc, _ := newService(t, 5)

	company := "  Nova Empresa Ltda  "
	document := "11.222.333/0001-44"
	next := int64(1000)
	resp, err := svc.Update(context.Background(), domain.UpdateRequest{
		CompanyName:       &company,
		Document:          &document,
		NextInvoiceNumber: &next,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nova Empresa Ltda", resp.CompanyName)
	assert.Equal(t, "11222333000144", resp.Document)
	assert.Equal(t, int64(1000), resp.NextInvoiceNumber)

	cfg, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cfg.NextInvoiceNumber)
}

func TestUpdateRejectsInvalidNumber(t *testing.T) {
	svc, _ := newService(t, 5)

	next := int64(0)
	_, err := svc.Update(context.Background(), domain.UpdateRequest{NextInvoiceNumber: &next})
	require.ErrorIs(t, err, domain.ErrInvalidNumber)
}
