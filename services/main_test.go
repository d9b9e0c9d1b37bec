package services

import (
	"os"
	"testing"

	"ahub-backend/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	os.Setenv("QR_SECRET", "test-qr-secret-for-unit-tests")

	var err error
	testDB, err = gorm.Open(sqlite.Open("file:servicestest?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)

	// SQLite-compatible DDL; the model tags carry PostgreSQL-specific defaults.
	tables := []string{
		`CREATE TABLE IF NOT EXISTS "members" (
			"id" TEXT PRIMARY KEY,
			"email" TEXT NOT NULL UNIQUE,
			"password" TEXT NOT NULL,
			"name" TEXT,
			"role" TEXT DEFAULT 'member',
			"kyosk_id" TEXT,
			"phone" TEXT,
			"is_blocked" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "points_ledger_entries" (
			"id" TEXT PRIMARY KEY,
			"member_id" TEXT NOT NULL,
			"amount" INTEGER NOT NULL,
			"type" TEXT NOT NULL,
			"reference_id" TEXT,
			"description" TEXT,
			"created_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "store_items" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"description" TEXT,
			"points_price" INTEGER NOT NULL,
			"stock" INTEGER DEFAULT 0,
			"is_active" INTEGER DEFAULT 1,
			"offer_ends_at" DATETIME,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "kyosk_products" (
			"id" TEXT PRIMARY KEY,
			"kyosk_id" TEXT NOT NULL,
			"name" TEXT NOT NULL,
			"points_price" INTEGER NOT NULL,
			"stock" INTEGER DEFAULT 0,
			"is_active" INTEGER DEFAULT 1,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "stock_movements" (
			"id" TEXT PRIMARY KEY,
			"item_type" TEXT NOT NULL,
			"item_id" TEXT NOT NULL,
			"quantity" INTEGER NOT NULL,
			"reason" TEXT,
			"created_at" DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS "qr_nonces" (
			"id" TEXT PRIMARY KEY,
			"purpose" TEXT NOT NULL,
			"subject_id" TEXT NOT NULL,
			"nonce" TEXT NOT NULL,
			"payload" TEXT NOT NULL,
			"expires_at" DATETIME NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_qr_nonces_subject ON "qr_nonces"("purpose","subject_id")`,
	}
	for _, sql := range tables {
		if err := testDB.Exec(sql).Error; err != nil {
			panic("failed to migrate test database: " + err.Error())
		}
	}

	code := m.Run()
	os.Exit(code)
}

func freshDB() *gorm.DB {
	testDB.Exec("DELETE FROM points_ledger_entries")
	testDB.Exec("DELETE FROM stock_movements")
	testDB.Exec("DELETE FROM qr_nonces")
	testDB.Exec("DELETE FROM store_items")
	testDB.Exec("DELETE FROM kyosk_products")
	testDB.Exec("DELETE FROM members")
	return testDB
}

func seedMember(db *gorm.DB, email string) models.Member {
	member := models.Member{
		ID:       uuid.New(),
		Email:    email,
		Password: "irrelevant",
		Role:     "member",
	}
	db.Create(&member)
	return member
}

func seedStoreItem(db *gorm.DB, name string, stock int) models.StoreItem {
	item := models.StoreItem{
		ID:          uuid.New(),
		Name:        name,
		PointsPrice: 10,
		Stock:       stock,
		IsActive:    true,
	}
	db.Create(&item)
	return item
}
