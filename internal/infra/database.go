package infra

import (
	"fmt"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs AutoMigrate
// for all core tables. The ledger's non-negative checks live in the schema so
// even a buggy code path cannot drive quantities below zero.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway container database.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Account{},
		&model.InventoryRecord{},
		&model.StockMovement{},
		&model.DocumentLine{},
		&model.BOMComponent{},
		&model.ProductionOrder{},
		&model.ProductionStage{},
		&model.ProductionOutputUnit{},
		&model.TransferRequest{},
		&model.PurchaseOrder{},
		&model.SalesOrder{},
		&model.IssueTicket{},
		&model.ReceiveTicket{},
		&model.DeliveryOrder{},
		&model.DeliveryEvent{},
		&model.FulfillmentPipeline{},
		&model.PipelineStep{},
	)
}
