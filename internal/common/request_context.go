// request_context.go - Request tracking and logging system

package common

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// RequestContext tracks the entire request lifecycle with timing and token usage.
// One RequestContext belongs to exactly one request and is never shared.
type RequestContext struct {
	RequestID           string
	Operation           string
	StartTime           time.Time
	Steps               []StepLog
	TotalTokens         TokenUsage
	CurrentStep         string
	CurrentStepStart    time.Time
	CurrentSubSteps     []SubStepLog
	CurrentSubStep      string
	CurrentSubStepStart time.Time
}

// StepLog represents a single processing step
type StepLog struct {
	Name      string       `json:"name"`
	StartTime time.Time    `json:"start_time"`
	Duration  int64        `json:"duration_ms"`
	Status    string       `json:"status"` // "success", "failed", "skipped"
	Tokens    *TokenUsage  `json:"tokens,omitempty"`
	Error     string       `json:"error,omitempty"`
	SubSteps  []SubStepLog `json:"sub_steps,omitempty"`
}

// SubStepLog represents a detailed sub-operation within a step
type SubStepLog struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Duration  int64     `json:"duration_ms"`
	Details   string    `json:"details,omitempty"`
}

// TokenUsage tracks model token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// NewRequestContext creates a new request tracking context
func NewRequestContext(operation string) *RequestContext {
	reqID := uuid.New().String()
	now := time.Now()

	log.Printf("[%s] 🚀 New request | Operation: %s | Time: %s", reqID, operation, now.Format("15:04:05"))

	return &RequestContext{
		RequestID:   reqID,
		Operation:   operation,
		StartTime:   now,
		Steps:       []StepLog{},
		TotalTokens: TokenUsage{},
	}
}

type requestContextKey struct{}

// WithRequestContext attaches rc to ctx so downstream layers can log under the same request id.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the RequestContext stored in ctx, or nil.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}

// StartStep begins tracking a new processing step
func (rc *RequestContext) StartStep(stepName string) {
	if rc == nil {
		return
	}
	rc.CurrentStep = stepName
	rc.CurrentStepStart = time.Now()

	stepDescriptions := map[string]string{
		"normalize_input":  "📷 Normalize input document",
		"detect_country":   "🌏 Detect issuing country",
		"model_extraction": "🔍 Model extraction",
		"parse_response":   "🔄 Parse model response",
		"map_schema":       "📝 Map to standard schema",
	}

	desc := stepDescriptions[stepName]
	if desc == "" {
		desc = stepName
	}

	log.Printf("[%s] ┌── %s", rc.RequestID, desc)
}

// EndStep completes the current step and records timing
func (rc *RequestContext) EndStep(status string, tokens *TokenUsage, err error) {
	if rc == nil {
		return
	}
	duration := time.Since(rc.CurrentStepStart).Milliseconds()

	stepLog := StepLog{
		Name:      rc.CurrentStep,
		StartTime: rc.CurrentStepStart,
		Duration:  duration,
		Status:    status,
		Tokens:    tokens,
		SubSteps:  rc.CurrentSubSteps,
	}

	if err != nil {
		stepLog.Error = err.Error()
		log.Printf("[%s] ❌ FAILED - %s (%.2fs) - Error: %v",
			rc.RequestID, rc.CurrentStep, float64(duration)/1000, err)
	} else {
		logMsg := fmt.Sprintf("[%s] └── ✅ %s: %.2fs",
			rc.RequestID, status, float64(duration)/1000)

		if tokens != nil {
			rc.AddTokens(*tokens)
			logMsg += fmt.Sprintf(" | 🪙 Tokens: %d in + %d out = %d",
				tokens.InputTokens, tokens.OutputTokens, tokens.TotalTokens)
		}

		if len(rc.CurrentSubSteps) > 0 {
			logMsg += fmt.Sprintf(" | sub-steps: %d", len(rc.CurrentSubSteps))
		}

		log.Print(logMsg)
	}

	rc.Steps = append(rc.Steps, stepLog)
	rc.CurrentStep = ""
	rc.CurrentSubSteps = []SubStepLog{}
}

// AddTokens accumulates token usage reported by the model gateway
func (rc *RequestContext) AddTokens(tokens TokenUsage) {
	if rc == nil {
		return
	}
	rc.TotalTokens.InputTokens += tokens.InputTokens
	rc.TotalTokens.OutputTokens += tokens.OutputTokens
	rc.TotalTokens.TotalTokens += tokens.TotalTokens
}

// StartSubStep begins tracking a detailed sub-operation
func (rc *RequestContext) StartSubStep(subStepName string) {
	if rc == nil {
		return
	}
	rc.CurrentSubStep = subStepName
	rc.CurrentSubStepStart = time.Now()

	subStepDesc := map[string]string{
		"decode_image":     "🔧 Decode image",
		"enhance_image":    "🔧 Enhance image quality",
		"rasterize_pdf":    "📄 Render first PDF page",
		"build_prompt":     "📢 Build prompt",
		"call_model_api":   "🚀 Call model API",
		"extract_metadata": "📊 Extract metadata",
	}

	desc := subStepDesc[subStepName]
	if desc == "" {
		desc = subStepName
	}

	log.Printf("[%s]    ├─ %s...", rc.RequestID, desc)
}

// EndSubStep completes the current sub-step and records timing
func (rc *RequestContext) EndSubStep(details string) {
	if rc == nil || rc.CurrentSubStep == "" {
		return
	}

	duration := time.Since(rc.CurrentSubStepStart).Milliseconds()

	rc.CurrentSubSteps = append(rc.CurrentSubSteps, SubStepLog{
		Name:      rc.CurrentSubStep,
		StartTime: rc.CurrentSubStepStart,
		Duration:  duration,
		Details:   details,
	})

	detailsMsg := ""
	if details != "" {
		detailsMsg = " | " + details
	}
	log.Printf("[%s]    └─ ✅ %.2fs%s", rc.RequestID, float64(duration)/1000, detailsMsg)

	rc.CurrentSubStep = ""
}

// ElapsedMillis returns the time spent on the request so far
func (rc *RequestContext) ElapsedMillis() int64 {
	return time.Since(rc.StartTime).Milliseconds()
}

// GetSummary returns a final summary of the entire request
func (rc *RequestContext) GetSummary() map[string]interface{} {
	totalDuration := rc.ElapsedMillis()

	stepBreakdown := make(map[string]int64)
	for _, step := range rc.Steps {
		stepBreakdown[step.Name] = step.Duration
	}

	summary := map[string]interface{}{
		"request_id":         rc.RequestID,
		"operation":          rc.Operation,
		"total_duration_ms":  totalDuration,
		"total_duration_sec": float64(totalDuration) / 1000,
		"step_breakdown":     stepBreakdown,
		"total_steps":        len(rc.Steps),
		"token_usage": map[string]interface{}{
			"input_tokens":  rc.TotalTokens.InputTokens,
			"output_tokens": rc.TotalTokens.OutputTokens,
			"total_tokens":  rc.TotalTokens.TotalTokens,
		},
	}

	log.Printf("[%s] ═══ 🎯 Summary ═══", rc.RequestID)
	log.Printf("[%s] ⏱️  Total: %.2fs | 📝 Steps: %d | 🪙 Tokens: %s in + %s out = %s",
		rc.RequestID,
		float64(totalDuration)/1000,
		len(rc.Steps),
		formatNumber(rc.TotalTokens.InputTokens),
		formatNumber(rc.TotalTokens.OutputTokens),
		formatNumber(rc.TotalTokens.TotalTokens))
	log.Printf("[%s] ═══════════════════════════", rc.RequestID)

	return summary
}

// LogInfo logs info-level message with request ID prefix
func (rc *RequestContext) LogInfo(format string, args ...interface{}) {
	log.Printf("[%s] ℹ️  %s", rc.id(), fmt.Sprintf(format, args...))
}

// LogWarning logs warning-level message with request ID prefix
func (rc *RequestContext) LogWarning(format string, args ...interface{}) {
	log.Printf("[%s] ⚠️  %s", rc.id(), fmt.Sprintf(format, args...))
}

// LogError logs error-level message with request ID prefix
func (rc *RequestContext) LogError(format string, args ...interface{}) {
	log.Printf("[%s] ❌ %s", rc.id(), fmt.Sprintf(format, args...))
}

func (rc *RequestContext) id() string {
	if rc == nil {
		return "-"
	}
	return rc.RequestID
}

// formatNumber adds comma separators to numbers
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n%1000000)/1000, n%1000)
}
