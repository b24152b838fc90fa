/*
 * @module api/controllers/dataset_controller
 * @description 数据集管理控制器，提供数据文件加载与数据集元信息查询API
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求 -> 业务逻辑处理 -> 响应返回
 * @rules 加载失败返回带行列上下文的错误信息，已加载的数据集保持可用
 * @dependencies milkmonitor-service/service, github.com/go-chi/render
 * @refs api/routes
 */

package controllers

import (
	"net/http"

	"github.com/go-chi/render"

	"milkmonitor-service/service"
	"milkmonitor-service/service/models"
	"milkmonitor-service/service/processor"
)

// DatasetController 数据集管理控制器
type DatasetController struct {
	processor *processor.DataProcessor
}

// NewDatasetController 创建数据集控制器实例
func NewDatasetController() *DatasetController {
	return &DatasetController{
		processor: service.GlobalDataProcessor,
	}
}

// LoadRequest 数据加载请求
type LoadRequest struct {
	FilePath string `json:"file_path"` // 机器人导出文件的服务端路径
}

// DatasetMeta 数据集元信息
type DatasetMeta struct {
	RowCount     int      `json:"row_count"`
	SubjectCount int      `json:"subject_count"`
	Subjects     []int    `json:"subjects,omitempty"`
	Weeks        []string `json:"weeks,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
}

// datasetMeta 构造数据集元信息
func datasetMeta(ds *models.Dataset, withLists bool) DatasetMeta {
	meta := DatasetMeta{
		RowCount:     ds.Len(),
		SubjectCount: len(ds.Subjects()),
	}
	if ds.Len() > 0 {
		meta.StartDate = ds.StartDate.Format("2006-01-02")
		meta.EndDate = ds.EndDate.Format("2006-01-02")
	}
	if withLists {
		meta.Subjects = ds.Subjects()
		meta.Weeks = ds.Weeks
	}
	return meta
}

// Load 加载数据文件
// @Summary 加载挤奶数据文件
// @Description 解析机器人导出的数据文件并替换当前数据集，任何一行解析失败则整次加载失败
// @Tags 数据集
// @Accept json
// @Produce json
// @Param request body LoadRequest true "加载请求"
// @Success 200 {object} APIResponse{data=DatasetMeta}
// @Failure 400 {object} APIResponse
// @Router /datasets/load [post]
func (c *DatasetController) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "请求格式错误: "+err.Error())
		return
	}
	if req.FilePath == "" {
		respondError(w, r, http.StatusBadRequest, "file_path不能为空")
		return
	}

	dataset, err := c.processor.Load(req.FilePath)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "数据加载失败: "+err.Error())
		return
	}

	respondOK(w, r, datasetMeta(dataset, true))
}

// Current 查询当前数据集元信息
// @Summary 当前数据集
// @Description 返回当前已加载数据集的元信息
// @Tags 数据集
// @Produce json
// @Success 200 {object} APIResponse{data=DatasetMeta}
// @Failure 404 {object} APIResponse
// @Router /datasets/current [get]
func (c *DatasetController) Current(w http.ResponseWriter, r *http.Request) {
	ds := c.processor.Original()
	if ds == nil {
		respondError(w, r, http.StatusNotFound, "尚未加载数据集")
		return
	}
	respondOK(w, r, datasetMeta(ds, false))
}

// Subjects 查询奶牛编号列表
// @Summary 奶牛编号列表
// @Description 返回升序排列的全部奶牛编号，用于前端下拉框
// @Tags 数据集
// @Produce json
// @Success 200 {object} APIResponse{data=[]int}
// @Failure 404 {object} APIResponse
// @Router /datasets/subjects [get]
func (c *DatasetController) Subjects(w http.ResponseWriter, r *http.Request) {
	if !c.processor.HasData() {
		respondError(w, r, http.StatusNotFound, "尚未加载数据集")
		return
	}
	respondOK(w, r, c.processor.Subjects())
}

// Weeks 查询周键列表
// @Summary 周键列表
// @Description 返回按时间排序的全部周键
// @Tags 数据集
// @Produce json
// @Success 200 {object} APIResponse{data=[]string}
// @Failure 404 {object} APIResponse
// @Router /datasets/weeks [get]
func (c *DatasetController) Weeks(w http.ResponseWriter, r *http.Request) {
	if !c.processor.HasData() {
		respondError(w, r, http.StatusNotFound, "尚未加载数据集")
		return
	}
	respondOK(w, r, c.processor.Weeks())
}

// DateRange 查询数据集日期边界
// @Summary 数据集日期边界
// @Description 返回数据集的最早与最晚事件日期
// @Tags 数据集
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /datasets/date-range [get]
func (c *DatasetController) DateRange(w http.ResponseWriter, r *http.Request) {
	start, end, ok := c.processor.DateRange()
	if !ok {
		respondError(w, r, http.StatusNotFound, "尚未加载数据集")
		return
	}
	respondOK(w, r, map[string]string{
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	})
}
