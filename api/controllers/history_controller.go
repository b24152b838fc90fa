/*
 * @module api/controllers/history_controller
 * @description 运行历史控制器，提供加载与生成历史的分页查询API
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求 -> 数据库查询 -> 分页响应
 * @rules 历史只是审计元数据，按创建时间倒序返回
 * @dependencies gorm.io/gorm, github.com/spf13/cast
 * @refs api/routes, service/models
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"milkmonitor-service/service"
	"milkmonitor-service/service/models"
)

// HistoryController 运行历史控制器
type HistoryController struct {
	db *gorm.DB
}

// NewHistoryController 创建历史控制器实例
func NewHistoryController() *HistoryController {
	return &HistoryController{db: service.DB}
}

// pageParams 解析分页参数
func pageParams(r *http.Request) (page, size int) {
	page = cast.ToInt(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	size = cast.ToInt(r.URL.Query().Get("size"))
	if size <= 0 || size > 100 {
		size = 10
	}
	return page, size
}

// Loads 查询加载历史
// @Summary 加载历史
// @Description 分页返回数据加载的审计记录
// @Tags 历史
// @Produce json
// @Param page query int false "页码"
// @Param size query int false "每页条数"
// @Success 200 {object} PaginatedResponse{data=[]models.LoadRecord}
// @Router /history/loads [get]
func (c *HistoryController) Loads(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)

	var total int64
	var records []models.LoadRecord
	c.db.Model(&models.LoadRecord{}).Count(&total)
	err := c.db.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&records).Error
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "查询加载历史失败: "+err.Error())
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0, Msg: "操作成功",
		Data: records, Total: total, Page: page, Size: size,
	})
}

// Generations 查询生成历史
// @Summary 生成历史
// @Description 分页返回视图生成的审计记录
// @Tags 历史
// @Produce json
// @Param page query int false "页码"
// @Param size query int false "每页条数"
// @Success 200 {object} PaginatedResponse{data=[]models.GenerationRecord}
// @Router /history/generations [get]
func (c *HistoryController) Generations(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)

	var total int64
	var records []models.GenerationRecord
	c.db.Model(&models.GenerationRecord{}).Count(&total)
	err := c.db.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&records).Error
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "查询生成历史失败: "+err.Error())
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0, Msg: "操作成功",
		Data: records, Total: total, Page: page, Size: size,
	})
}
