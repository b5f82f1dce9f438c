package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"seo-agent/ai"
	"seo-agent/logging"
	"seo-agent/tools"
)

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ToolResponse struct {
	Tool     string `json:"tool"`
	Result   any    `json:"result"`
	Duration string `json:"duration"`
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"note":   "POST JSON {message: string} to this endpoint to chat.",
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "seo-agent",
		"tools":   len(s.registry.Names()),
		"cache":   s.cache.Stats(),
	})
}

func (s *Server) chatHandler(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON {\"message\": string}"})
		return
	}

	logger := s.logger.WithFields(logging.Fields{
		"request_id":  c.GetString("request_id"),
		"message_len": len(req.Message),
	})
	logger.Info("Chat message received")

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.settings.Server.ChatTimeout)
	defer cancel()

	result, err := s.agent.Run(ctx, req.Message)
	if err != nil {
		status := chatErrorStatus(err)
		logger.WithError(err).WithField("status", status).Error("Chat failed")
		if s.settings.Server.DegradedReplies {
			c.JSON(http.StatusOK, ChatResponse{Reply: fmt.Sprintf("An unexpected error occurred: %v", err)})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	logger.WithFields(logging.Fields{
		"rounds":     result.Rounds,
		"tool_calls": len(result.ToolCalls),
	}).Info("Chat reply sent")
	c.JSON(http.StatusOK, ChatResponse{Reply: result.Reply})
}

func (s *Server) listToolsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.registry.Tools()})
}

func (s *Server) invokeToolHandler(c *gin.Context) {
	name := c.Param("name")
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.settings.Server.ChatTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.registry.Invoke(ctx, name, body)
	if err != nil {
		status := toolErrorStatus(err)
		s.logger.WithError(err).WithFields(logging.Fields{
			"request_id": c.GetString("request_id"),
			"tool":       name,
			"status":     status,
		}).Warn("Tool invocation failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ToolResponse{
		Tool:     name,
		Result:   result,
		Duration: time.Since(start).String(),
	})
}

func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ai.ErrUpstream), errors.Is(err, ai.ErrMaxRounds):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toolErrorStatus(err error) int {
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, tools.ErrInvalidArguments):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
