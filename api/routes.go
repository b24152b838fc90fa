/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"milkmonitor-service/api/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// SSE事件订阅
	eventController := controllers.NewEventController()
	r.Get("/sse/{user_name}", eventController.HandleSSE)

	// 数据集管理
	r.Route("/datasets", func(r chi.Router) {
		datasetController := controllers.NewDatasetController()
		r.Post("/load", datasetController.Load)
		r.Get("/current", datasetController.Current)
		r.Get("/subjects", datasetController.Subjects)
		r.Get("/weeks", datasetController.Weeks)
		r.Get("/date-range", datasetController.DateRange)
	})

	// 分析与视图结果
	r.Route("/analysis", func(r chi.Router) {
		analysisController := controllers.NewAnalysisController()
		r.Post("/update", analysisController.Update)
		r.Get("/status", analysisController.Status)
		r.Get("/summary", analysisController.Summary)
		r.Get("/views", analysisController.Views)
		r.Get("/results", analysisController.Results)
		r.Get("/results/{view}", analysisController.Result)
	})

	// 运行历史
	r.Route("/history", func(r chi.Router) {
		historyController := controllers.NewHistoryController()
		r.Get("/loads", historyController.Loads)
		r.Get("/generations", historyController.Generations)
	})
}
