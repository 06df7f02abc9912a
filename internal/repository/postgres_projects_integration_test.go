//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"testing"

	"firefly/common/config"
	"firefly/common/database"
	"firefly/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

// 获取测试数据库连接（需先执行 db/migrations）
func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "firefly"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	return db
}

func cleanupProject(db *sql.DB, projectID string) {
	// 删除顺序：rooms/commodities -> areas -> buildings -> 其它子表 -> projects
	db.Exec(`DELETE FROM rooms WHERE project_id = $1`, projectID)
	db.Exec(`DELETE FROM expected_commodities WHERE project_id = $1`, projectID)
	db.Exec(`DELETE FROM areas WHERE project_id = $1`, projectID)
	db.Exec(`DELETE FROM buildings WHERE project_id = $1`, projectID)
	for _, fc := range flatCollections {
		db.Exec(`DELETE FROM `+fc.table.name+` WHERE project_id = $1`, projectID)
	}
	db.Exec(`DELETE FROM projects WHERE id = $1`, projectID)
}

func TestPostgresProjects_SaveTwiceNoDuplicates(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	repo := NewPostgresProjectsRepository(db)
	ctx := context.Background()
	tenantID := "integration-tenant"

	p := &domain.Project{
		ID:          uuid.NewString(),
		Status:      domain.StatusDraft,
		CompanyName: "Acme",
		Buildings: []*domain.Building{
			{ID: uuid.NewString(), Name: "Warehouse", Areas: []*domain.Area{{ID: uuid.NewString(), Name: "Racking",
				Commodities: []*domain.Commodity{{ID: uuid.NewString(), Name: "Cartons", StackingHeight: 4}}}}},
			{ID: uuid.NewString(), Name: "Office", Areas: []*domain.Area{{ID: uuid.NewString(), Name: "Open plan"}}},
		},
		SpecialRisks: []*domain.SpecialRisk{{ID: uuid.NewString(), RiskType: domain.RiskGenerator, Location: "Yard"}},
	}
	defer cleanupProject(db, p.ID)

	require.NoError(t, repo.SaveProject(ctx, tenantID, p))
	require.NoError(t, repo.SaveProject(ctx, tenantID, p))

	got, err := repo.GetProject(ctx, tenantID, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Buildings, 2)
	assert.Len(t, got.Buildings[0].Areas, 1)
	assert.Len(t, got.Buildings[1].Areas, 1)
	assert.Equal(t, "Cartons", got.Buildings[0].Areas[0].Commodities[0].Name)

	// 删除第二栋建筑：其区域随之删除
	p.Buildings = p.Buildings[:1]
	require.NoError(t, repo.SaveProject(ctx, tenantID, p))
	var areas int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM areas WHERE project_id = $1`, p.ID).Scan(&areas))
	assert.Equal(t, 1, areas)

	// 其它租户不可见
	_, err = repo.GetProject(ctx, "other-tenant", p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
