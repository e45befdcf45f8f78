package http

import (
	"PricePilot/internal/modules/ai/application/dto/request"
	"PricePilot/internal/modules/ai/application/service"
	"PricePilot/internal/modules/ai/domain/product"
	"PricePilot/pkg/back"
	"PricePilot/pkg/xerr"
	"PricePilot/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// ProductHandler 比价与商品目录 HTTP Handler
type ProductHandler struct {
	productSvc     service.ProductService
	ingestSvc      service.IngestService
	asyncIngestSvc service.AsyncIngestService
}

func NewProductHandler(productSvc service.ProductService, ingestSvc service.IngestService, asyncIngestSvc service.AsyncIngestService) *ProductHandler {
	return &ProductHandler{
		productSvc:     productSvc,
		ingestSvc:      ingestSvc,
		asyncIngestSvc: asyncIngestSvc,
	}
}

// ProductPrompt 比价查询：抽取商品、向量检索、生成比价结论
func (h *ProductHandler) ProductPrompt(c *gin.Context) {
	var req request.ProductPromptRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.productSvc.ProductPrompt(c.Request.Context(), req.Prompt, c.GetString("uuid"))
	if err != nil {
		back.FailWith(c, err)
		return
	}
	back.Success(c, data)
}

// PayloadLookup 按载荷字段精确查询
func (h *ProductHandler) PayloadLookup(c *gin.Context) {
	var req request.PayloadLookupRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.productSvc.PayloadLookup(c.Request.Context(), req)
	back.Result(c, data, err)
}

// IngestProducts 同步灌库：逐条向量化后写入向量库
func (h *ProductHandler) IngestProducts(c *gin.Context) {
	records, ok := bindIngestRecords(c)
	if !ok {
		return
	}

	data, err := h.ingestSvc.IngestProducts(c.Request.Context(), records)
	back.Result(c, data, err)
}

// IngestProductsAsync 异步灌库：投递到 Kafka 由后台 worker 处理
func (h *ProductHandler) IngestProductsAsync(c *gin.Context) {
	records, ok := bindIngestRecords(c)
	if !ok {
		return
	}

	data, err := h.asyncIngestSvc.SubmitBatch(c.Request.Context(), records)
	back.Result(c, data, err)
}

// GetIngestJob 查询异步灌库任务状态
func (h *ProductHandler) GetIngestJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	data, err := h.asyncIngestSvc.GetJob(c.Request.Context(), jobID)
	back.Result(c, data, err)
}

func bindIngestRecords(c *gin.Context) ([]product.ProductRecord, bool) {
	var req request.IngestProductsRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return nil, false
	}
	if len(req.Records) == 0 {
		back.Error(c, xerr.BadRequest, "商品列表不能为空")
		return nil, false
	}

	records := make([]product.ProductRecord, 0, len(req.Records))
	for _, item := range req.Records {
		records = append(records, product.ProductRecord{
			Name:        item.Name,
			Price:       item.Price,
			Source:      item.Source,
			Description: item.Description,
		})
	}
	return records, true
}
