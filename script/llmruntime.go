package script

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowdag/flowdag/value"
)

// LLMRuntime implements Runtime by treating a transform body as a
// natural-language instruction and asking a ChatModel to apply it to the
// supplied argument(s), folding the reply back into a TaggedValue. It
// exists for operators whose FuncBody reads like "classify sentiment as
// positive, negative, or neutral" rather than code — a scripting runtime in
// the loosest sense, but a legitimate second implementation of the narrow
// call_one/call_two contract.
//
// model is not safe to share across operators in general (depends on the
// underlying ChatModel), so every operator gets its own LLMRuntime
// instance, consistent with the single-owner requirement every Runtime
// must honor.
type LLMRuntime struct {
	model   ChatModel
	tracker *CostTracker
	name    string // model identifier, for cost attribution
}

// NewLLMRuntime returns an LLMRuntime backed by model. modelName is used
// only for cost attribution (CostTracker.RecordLLMCall); it need not match
// any field on model.
func NewLLMRuntime(model ChatModel, modelName string, tracker *CostTracker) *LLMRuntime {
	return &LLMRuntime{model: model, tracker: tracker, name: modelName}
}

// Close implements Closer. LLMRuntime holds no resources of its own beyond
// the ChatModel, which owns its own lifecycle.
func (r *LLMRuntime) Close() error { return nil }

// CallOne implements Runtime.
func (r *LLMRuntime) CallOne(ctx context.Context, name, body string, arg value.TaggedValue) value.TaggedValue {
	prompt := fmt.Sprintf(
		"Apply the following transform to the input value and reply with only the result, no explanation.\nTransform: %s\nInput: %s",
		body, render(arg),
	)
	return r.evaluate(ctx, name, prompt)
}

// CallTwo implements Runtime.
func (r *LLMRuntime) CallTwo(ctx context.Context, name, body string, a, b value.TaggedValue) value.TaggedValue {
	prompt := fmt.Sprintf(
		"Combine the two input values per the following rule and reply with only the result, no explanation.\nRule: %s\nAccumulator: %s\nNext: %s",
		body, render(a), render(b),
	)
	return r.evaluate(ctx, name, prompt)
}

func (r *LLMRuntime) evaluate(ctx context.Context, name, prompt string) value.TaggedValue {
	if ctx.Err() != nil {
		return value.Invalid()
	}
	out, err := r.model.Chat(ctx, []Message{
		{Role: RoleSystem, Content: "You evaluate small data transforms. Reply with only the resulting value."},
		{Role: RoleUser, Content: prompt},
	})
	if err != nil {
		return value.Invalid()
	}
	if r.tracker != nil {
		r.tracker.RecordLLMCall(r.name, out.InputTokens, out.OutputTokens, name)
	}
	return parse(out.Text)
}

// render renders a TaggedValue as the compact text an LLM prompt embeds.
func render(v value.TaggedValue) string {
	switch v.Tag {
	case value.TagInvalid:
		return "null"
	case value.TagNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case value.TagBoolean:
		return strconv.FormatBool(v.Boolean)
	case value.TagString:
		return strconv.Quote(v.String)
	case value.TagBytes:
		return fmt.Sprintf("bytes(%x)", v.Bytes)
	case value.TagArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = render(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case value.TagObject:
		parts := make([]string, len(v.Object))
		for i, f := range v.Object {
			parts[i] = strconv.Quote(f.Key) + ":" + render(f.Value)
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "null"
	}
}

// parse reads a model's reply back into a TaggedValue. It only recognizes
// the scalar shapes an LLM is likely to answer with plainly (numbers,
// booleans, quoted strings); anything else is returned as a plain string,
// never as an error — consistent with "never fatal to the operator".
func parse(text string) value.TaggedValue {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "null") {
		return value.Invalid()
	}
	if n, err := strconv.ParseFloat(text, 64); err == nil {
		return value.Number(n)
	}
	if b, err := strconv.ParseBool(text); err == nil {
		return value.Boolean(b)
	}
	if unquoted, err := strconv.Unquote(text); err == nil {
		return value.String(unquoted)
	}
	return value.String(text)
}
