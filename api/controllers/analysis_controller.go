/*
 * @module api/controllers/analysis_controller
 * @description 分析控制器，提供视图更新请求与结果查询API
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求 -> 单飞行检查 -> 启动生成 -> 结果经SSE渐进送达
 * @rules 生成进行中的更新请求返回409忙碌信号，不排队
 * @dependencies milkmonitor-service/service, github.com/go-chi/chi/v5
 * @refs api/routes, service/analysis
 */

package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"milkmonitor-service/service"
	"milkmonitor-service/service/analysis"
)

// AnalysisController 分析控制器
type AnalysisController struct {
	analysisService *analysis.AnalysisService
}

// NewAnalysisController 创建分析控制器实例
func NewAnalysisController() *AnalysisController {
	return &AnalysisController{
		analysisService: service.GlobalAnalysisService,
	}
}

// Update 请求视图更新
// @Summary 请求视图更新
// @Description 按过滤条件启动一代视图生成，结果通过SSE渐进推送；已有一代在运行时返回409
// @Tags 分析
// @Accept json
// @Produce json
// @Param request body analysis.UpdateRequest true "更新请求"
// @Success 200 {object} APIResponse{data=analysis.UpdateAccepted}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse "生成进行中，请求被拒绝"
// @Router /analysis/update [post]
func (c *AnalysisController) Update(w http.ResponseWriter, r *http.Request) {
	var req analysis.UpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "请求格式错误: "+err.Error())
		return
	}

	accepted, err := c.analysisService.RequestUpdate(req)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrGenerationBusy):
			respondError(w, r, http.StatusConflict, err.Error())
		case errors.Is(err, analysis.ErrNoDataset):
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			respondError(w, r, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondOK(w, r, accepted)
}

// Status 查询生成状态
// @Summary 生成状态
// @Description 返回当前生成代的状态与进度
// @Tags 分析
// @Produce json
// @Success 200 {object} APIResponse{data=analysis.GenerationStatus}
// @Router /analysis/status [get]
func (c *AnalysisController) Status(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, c.analysisService.Status())
}

// Summary 查询汇总统计
// @Summary 汇总统计
// @Description 返回最近一次过滤子集的汇总统计
// @Tags 分析
// @Produce json
// @Success 200 {object} APIResponse{data=models.SummaryStats}
// @Router /analysis/summary [get]
func (c *AnalysisController) Summary(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, c.analysisService.Summary())
}

// Results 查询全部当前视图结果
// @Summary 当前视图结果
// @Description 返回按视图名组织的最近一次成功结果
// @Tags 分析
// @Produce json
// @Success 200 {object} APIResponse
// @Router /analysis/results [get]
func (c *AnalysisController) Results(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, c.analysisService.Results())
}

// Result 查询指定视图结果
// @Summary 指定视图结果
// @Description 按视图名返回最近一次成功结果
// @Tags 分析
// @Produce json
// @Param view path string true "视图名"
// @Success 200 {object} APIResponse{data=models.ViewResult}
// @Failure 404 {object} APIResponse
// @Router /analysis/results/{view} [get]
func (c *AnalysisController) Result(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	result, ok := c.analysisService.Result(view)
	if !ok {
		respondError(w, r, http.StatusNotFound, "视图结果不存在: "+view)
		return
	}
	respondOK(w, r, result)
}

// Views 查询视图目录
// @Summary 视图目录
// @Description 返回注册表中全部视图名，按声明顺序
// @Tags 分析
// @Produce json
// @Success 200 {object} APIResponse{data=[]string}
// @Router /analysis/views [get]
func (c *AnalysisController) Views(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, c.analysisService.Registry().Order())
}
