package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shelfwise/library-backend/pkg/config"
)

type shelf struct {
	ID    int
	Label string `gorm:"uniqueIndex"`
}

func memoryConn(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&shelf{}))
	return conn
}

func shelfCount(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&shelf{}).Count(&n).Error)
	return n
}

func TestWithTx(t *testing.T) {
	conn := memoryConn(t)
	client := NewFromConn(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&shelf{Label: "fiction"}).Error
	}))
	assert.EqualValues(t, 1, shelfCount(t, conn))

	failure := errors.New("abort")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&shelf{Label: "poetry"}).Error)
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.EqualValues(t, 1, shelfCount(t, conn), "failed transaction must not persist")
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	conn := memoryConn(t)
	client := NewFromConn(conn)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&shelf{Label: "history"}).Error; err != nil {
				return err
			}
			panic("mid-transaction")
		})
	})
	assert.Zero(t, shelfCount(t, conn))
}

func TestNewValidatesDriverSettings(t *testing.T) {
	ctx := context.Background()

	client, err := New(ctx, config.DBConfig{SQLitePath: filepath.Join(t.TempDir(), "library.db")}, Options{UseSQLite: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, "sqlite", client.Dialect())
	assert.NoError(t, client.Ping(ctx))

	_, err = New(ctx, config.DBConfig{}, Options{UseSQLite: true}, nil)
	assert.Error(t, err, "sqlite without a path")

	_, err = New(ctx, config.DBConfig{}, Options{}, nil)
	assert.Error(t, err, "postgres without a dsn")
}

func TestIsUniqueViolation(t *testing.T) {
	conn := memoryConn(t)
	require.NoError(t, conn.Create(&shelf{Label: "science"}).Error)
	dup := conn.Create(&shelf{Label: "science"}).Error
	require.Error(t, dup)

	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(dup, ".label"))
	assert.False(t, IsUniqueViolation(dup, ".id"))
	assert.False(t, IsUniqueViolation(errors.New("other"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
