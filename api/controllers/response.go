package controllers

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// respondOK 返回成功响应
func respondOK(w http.ResponseWriter, r *http.Request, data interface{}) {
	render.JSON(w, r, APIResponse{Status: 0, Msg: "操作成功", Data: data})
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, r *http.Request, httpStatus int, msg string) {
	render.Status(r, httpStatus)
	render.JSON(w, r, APIResponse{Status: httpStatus, Msg: msg})
}
