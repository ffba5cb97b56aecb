package database

import (
	"context"
	"testing"
	"time"

	"ragcore/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default config", config: DefaultConfig(), wantErr: false},
		{name: "missing path", config: &Config{Path: "", LogLevel: "warn"}, wantErr: true},
		{name: "invalid log level", config: &Config{Path: "x.db", LogLevel: "invalid"}, wantErr: true},
		{
			name: "invalid connection pool",
			config: &Config{
				Path:         "x.db",
				LogLevel:     "warn",
				MaxIdleConns: 100,
				MaxOpenConns: 10,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_InMemorySQLite(t *testing.T) {
	log, err := logger.Development()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Path = ":memory:"

	db, err := New(cfg, log)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.HealthCheck(context.Background()))

	type widget struct {
		ID   uint `gorm:"primarykey"`
		Name string
	}
	require.NoError(t, db.DB.AutoMigrate(&widget{}))
	require.NoError(t, db.DB.Create(&widget{Name: "gizmo"}).Error)

	var got widget
	require.NoError(t, db.DB.First(&got, "name = ?", "gizmo").Error)
	assert.Equal(t, "gizmo", got.Name)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
	}{
		{"valid pagination", 2, 10, 2, 10},
		{"page less than 1", 0, 10, 1, 10},
		{"page size less than 1", 1, 0, 1, 10},
		{"page size exceeds max", 1, 200, 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := Paginate(tt.page, tt.pageSize)
			assert.NotNil(t, scope)
		})
	}
}

func TestOrderBy(t *testing.T) {
	scope := OrderBy("created_at", true)
	assert.NotNil(t, scope)
}

func TestWhereIf(t *testing.T) {
	scope := WhereIf(true, "status = ?", "active")
	assert.NotNil(t, scope)
}

func TestIsRecordNotFoundError(t *testing.T) {
	assert.False(t, IsRecordNotFoundError(nil))
	assert.True(t, IsRecordNotFoundError(gorm.ErrRecordNotFound))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.False(t, IsDuplicateKeyError(nil))
	assert.True(t, IsDuplicateKeyError(&sqliteConstraintError{"UNIQUE constraint failed"}))
}

type sqliteConstraintError struct{ msg string }

func (e *sqliteConstraintError) Error() string { return e.msg }

func TestQueryBuilder(t *testing.T) {
	qb := &QueryBuilder{scopes: make([]func(*gorm.DB) *gorm.DB, 0)}
	qb = qb.Where("status = ?", "active").
		Order("created_at DESC").
		Limit(10).
		Offset(0)

	require.NotNil(t, qb)
	assert.Len(t, qb.scopes, 4)
}

func TestPageResult(t *testing.T) {
	result := &PageResult{Data: []string{"a", "b", "c"}, Total: 100, Page: 1, PageSize: 10, TotalPages: 10}
	assert.EqualValues(t, 100, result.Total)
	assert.Equal(t, 10, result.TotalPages)
}

func TestTransactionManager(t *testing.T) {
	log, err := logger.Development()
	require.NoError(t, err)

	cfg := DefaultConfig()
	db := &DB{config: cfg, logger: log}

	tm := NewTransactionManager(db)
	require.NotNil(t, tm)
	assert.Same(t, db, tm.db)
}

func TestContextWithTransaction(t *testing.T) {
	ctx := context.Background()
	ctx = ContextWithTransaction(ctx, nil)

	_, ok := TransactionFromContext(ctx)
	assert.True(t, ok)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "ragcore.db", cfg.Path)
	assert.Equal(t, 1, cfg.MaxIdleConns)
	assert.Equal(t, time.Hour, cfg.ConnMaxLifetime)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
}
