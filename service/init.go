/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移和全局服务装配
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs api/routes
 */

package service

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"milkmonitor-service/service/analysis"
	"milkmonitor-service/service/cleanup"
	"milkmonitor-service/service/event"
	"milkmonitor-service/service/models"
	"milkmonitor-service/service/processor"
)

var (
	DB                          *gorm.DB
	GlobalEventService          *event.EventService
	GlobalDataProcessor         *processor.DataProcessor
	GlobalAnalysisService       *analysis.AnalysisService
	GlobalHistoryCleanupService *cleanup.HistoryCleanupService
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// initDatabase 初始化数据库连接。设置DATABASE_URL时使用PostgreSQL，
// 否则使用本地SQLite文件；数据库只保存运行历史等审计元数据
func initDatabase() {
	var err error
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		DB, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	} else {
		dbPath := getEnvWithDefault("DB_PATH", "milkmonitor.db")
		DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// runMigrations 运行数据库迁移
func runMigrations() {
	if err := DB.AutoMigrate(&models.LoadRecord{}, &models.GenerationRecord{}); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")
}

// initServices 初始化服务
func initServices() {
	GlobalEventService = event.NewEventService()
	GlobalDataProcessor = processor.NewDataProcessor(DB)
	GlobalAnalysisService = analysis.NewAnalysisService(DB, GlobalDataProcessor, GlobalEventService)

	GlobalHistoryCleanupService = cleanup.NewHistoryCleanupService(DB)
	if err := GlobalHistoryCleanupService.StartScheduledCleanup(); err != nil {
		log.Printf("历史清理调度器启动失败: %v", err)
	}

	log.Println("服务初始化完成")
}
