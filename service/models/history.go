/*
 * @module service/models/history
 * @description 运行历史模型，记录数据加载与视图生成的审计信息
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/requirements.md
 * @stateFlow 加载/生成执行 -> 写入历史记录 -> 定期清理
 * @rules 数据集本身仅驻留内存，数据库只保存运行元数据
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/cleanup, service/analysis
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoadRecord 一次数据加载的审计记录
type LoadRecord struct {
	ID           string     `gorm:"type:uuid;primary_key" json:"id"`
	FileName     string     `gorm:"not null" json:"file_name"`
	Status       string     `gorm:"not null" json:"status"` // success, failed
	RowCount     int        `json:"row_count"`
	SubjectCount int        `json:"subject_count"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	ErrorMsg     string     `json:"error_msg,omitempty"`
	DurationMs   int64      `json:"duration_ms"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate 创建前钩子
func (r *LoadRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// GenerationRecord 一次视图生成的审计记录
type GenerationRecord struct {
	ID              string    `gorm:"type:uuid;primary_key" json:"id"`
	SubjectSelector string    `gorm:"not null" json:"subject_selector"` // all 或具体奶牛编号
	RangeMode       string    `gorm:"not null" json:"range_mode"`       // week 或 date
	RangeValue      string    `json:"range_value"`                      // 周键或日期区间描述
	ActiveView      string    `json:"active_view"`
	JobCount        int       `json:"job_count"`
	RowCount        int       `json:"row_count"` // 过滤后参与计算的事件数
	Status          string    `gorm:"not null" json:"status"` // running, completed, failed
	ErrorMsg        string    `json:"error_msg,omitempty"`
	DurationMs      int64     `json:"duration_ms"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate 创建前钩子
func (r *GenerationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
