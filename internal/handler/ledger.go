package handler

import (
	"net/http"

	"caskledger/internal/dto"
	"caskledger/internal/service"

	"github.com/gin-gonic/gin"
)

// ── Batches ───────────────────────────────────────────────────────────────────

type BatchesHandler struct{ svc service.BatchService }

func NewBatchesHandler(svc service.BatchService) *BatchesHandler {
	return &BatchesHandler{svc: svc}
}

func (h *BatchesHandler) Create(c *gin.Context) {
	var req dto.CreateBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateBatch(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BatchesHandler) List(c *gin.Context) {
	resp, err := h.svc.ListBatches(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Barrels ───────────────────────────────────────────────────────────────────

type BarrelsHandler struct{ svc service.BarrelService }

func NewBarrelsHandler(svc service.BarrelService) *BarrelsHandler {
	return &BarrelsHandler{svc: svc}
}

func (h *BarrelsHandler) List(c *gin.Context) {
	var filter dto.BarrelFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, badQuery(err))
		return
	}
	resp, err := h.svc.ListBarrels(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BarrelsHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id", "barrel")
	if !ok {
		return
	}
	var req dto.UpdateBarrelRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateBarrel(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Usage logs ────────────────────────────────────────────────────────────────

type UsageLogsHandler struct{ svc service.UsageService }

func NewUsageLogsHandler(svc service.UsageService) *UsageLogsHandler {
	return &UsageLogsHandler{svc: svc}
}

func (h *UsageLogsHandler) Create(c *gin.Context) {
	var req dto.CreateUsageLogRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateUsageLog(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UsageLogsHandler) List(c *gin.Context) {
	resp, err := h.svc.ListUsageLogs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Bottling runs ─────────────────────────────────────────────────────────────

type BottlingRunsHandler struct{ svc service.BottlingService }

func NewBottlingRunsHandler(svc service.BottlingService) *BottlingRunsHandler {
	return &BottlingRunsHandler{svc: svc}
}

func (h *BottlingRunsHandler) Create(c *gin.Context) {
	var req dto.CreateBottlingRunRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateBottlingRun(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BottlingRunsHandler) List(c *gin.Context) {
	resp, err := h.svc.ListBottlingRuns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Shipments ─────────────────────────────────────────────────────────────────

type ShipmentsHandler struct{ svc service.ShipmentService }

func NewShipmentsHandler(svc service.ShipmentService) *ShipmentsHandler {
	return &ShipmentsHandler{svc: svc}
}

func (h *ShipmentsHandler) Create(c *gin.Context) {
	var req dto.CreateShipmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateShipment(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ShipmentsHandler) List(c *gin.Context) {
	resp, err := h.svc.ListShipments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
