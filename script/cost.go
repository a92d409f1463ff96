package script

import "sync"

// ModelPricing is the per-million-token input/output cost for one model.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// defaultModelPricing mirrors published provider rates as of early 2025.
// Operators that care about exact, current pricing should override entries
// via CostTracker.SetPricing.
var defaultModelPricing = map[string]ModelPricing{
	"gpt-4o":                     {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":                {InputPer1M: 0.15, OutputPer1M: 0.60},
	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},
	"gemini-1.5-pro":             {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash":           {InputPer1M: 0.075, OutputPer1M: 0.30},
}

// LLMCall records one LLMRuntime evaluation's token usage and cost,
// attributed to the operator that made it.
type LLMCall struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	OperatorName string
}

// CostTracker attributes LLMRuntime spend to its JobID and, per call, to the
// name the calling operator passed (its kind, e.g. "Map"; calls from two
// operators of the same kind are not told apart), so a deployment can
// answer "what did this job's LLM-backed operators cost" —
// the narrow bit of graph.CostTracker this engine actually needs, since
// FlowDAG jobs (unlike langgraph runs) don't have a single top-level
// "run" to attribute cost to; every job, not every conversation, is the
// unit of billing.
type CostTracker struct {
	JobID string

	mu         sync.Mutex
	pricing    map[string]ModelPricing
	calls      []LLMCall
	totalCost  float64
	modelCosts map[string]float64
}

// NewCostTracker returns a CostTracker scoped to one job.
func NewCostTracker(jobID string) *CostTracker {
	return &CostTracker{
		JobID:      jobID,
		pricing:    defaultModelPricing,
		modelCosts: make(map[string]float64),
	}
}

// RecordLLMCall records one evaluation's token usage and updates cumulative
// totals. An unrecognized model is recorded at zero cost rather than
// rejected — cost tracking must never be the reason an operator evaluation
// fails.
func (ct *CostTracker) RecordLLMCall(model string, inputTokens, outputTokens int, operatorName string) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing := ct.pricing[model] // zero value if absent
	cost := (float64(inputTokens)/1_000_000)*pricing.InputPer1M + (float64(outputTokens)/1_000_000)*pricing.OutputPer1M

	ct.calls = append(ct.calls, LLMCall{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		OperatorName: operatorName,
	})
	ct.totalCost += cost
	ct.modelCosts[model] += cost
}

// SetPricing overrides the pricing table entry for model.
func (ct *CostTracker) SetPricing(model string, inputPer1M, outputPer1M float64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.pricing == nil {
		ct.pricing = make(map[string]ModelPricing)
	}
	ct.pricing[model] = ModelPricing{InputPer1M: inputPer1M, OutputPer1M: outputPer1M}
}

// TotalCost returns cumulative cost across all recorded calls.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.totalCost
}

// CostByModel returns a per-model cost breakdown.
func (ct *CostTracker) CostByModel() map[string]float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make(map[string]float64, len(ct.modelCosts))
	for k, v := range ct.modelCosts {
		out[k] = v
	}
	return out
}

// Calls returns all recorded calls in order.
func (ct *CostTracker) Calls() []LLMCall {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]LLMCall, len(ct.calls))
	copy(out, ct.calls)
	return out
}
