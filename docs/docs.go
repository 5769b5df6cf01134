// Package docs 注册 swagger 文档，由 swag init 生成后可直接覆盖
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/organizations": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["组织"], "summary": "获取组织列表", "responses": {"200": {"description": "获取成功"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["组织"], "summary": "创建组织", "responses": {"200": {"description": "创建成功"}}}
        },
        "/api/v1/categories": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["类别"], "summary": "获取类别列表", "parameters": [{"type": "string", "name": "organizationId", "in": "query", "required": true}], "responses": {"200": {"description": "获取成功"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["类别"], "summary": "创建类别", "parameters": [{"type": "string", "name": "organizationId", "in": "query", "required": true}], "responses": {"200": {"description": "创建成功"}}}
        },
        "/api/v1/transactions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["账本流水"], "summary": "获取流水列表", "parameters": [{"type": "string", "name": "organizationId", "in": "query", "required": true}], "responses": {"200": {"description": "获取成功"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["账本流水"], "summary": "记账", "responses": {"200": {"description": "创建成功"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["账本流水"], "summary": "删除流水", "parameters": [{"type": "string", "name": "id", "in": "query", "required": true}], "responses": {"200": {"description": "删除成功"}}}
        },
        "/api/v1/transactions/summary": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["账本流水"], "summary": "获取账本汇总", "parameters": [{"type": "string", "name": "organizationId", "in": "query", "required": true}], "responses": {"200": {"description": "获取成功"}}}
        },
        "/api/v1/transactions/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["账本流水"], "summary": "导出账本流水", "produces": ["text/csv"], "parameters": [{"type": "string", "name": "organizationId", "in": "query", "required": true}, {"type": "string", "name": "start_time", "in": "query", "required": true}, {"type": "string", "name": "end_time", "in": "query", "required": true}], "responses": {"200": {"description": "CSV 文件"}}}
        },
        "/api/v1/goals": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["财务目标"], "summary": "获取目标列表", "parameters": [{"type": "string", "name": "organizationId", "in": "query", "required": true}], "responses": {"200": {"description": "获取成功"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["财务目标"], "summary": "创建目标", "responses": {"200": {"description": "创建成功"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["财务目标"], "summary": "更新目标", "responses": {"200": {"description": "更新成功"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["财务目标"], "summary": "删除目标", "parameters": [{"type": "string", "name": "id", "in": "query", "required": true}], "responses": {"200": {"description": "删除成功"}}}
        },
        "/api/v1/goals/sync": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["财务目标"], "summary": "同步目标进度", "parameters": [{"type": "string", "name": "organizationId", "in": "query", "required": true}], "responses": {"200": {"description": "同步完成"}, "429": {"description": "请求过于频繁"}}}
        },
        "/api/v1/goals/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["财务目标"], "summary": "导出目标", "parameters": [{"type": "string", "name": "organizationId", "in": "query", "required": true}], "responses": {"200": {"description": "Excel 文件"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MoneyFlow 财务目标 API",
	Description:      "多组织记账与财务目标跟踪，目标进度由账本流水自动同步",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
