package codec

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"tribunal/internal/adapter/llm"
)

const (
	firstAttemptTemperature = 0.3
	retryTemperature        = 0.0
)

// StructuredResult carries the outcome of one structured model exchange.
type StructuredResult[T any] struct {
	Value    T
	Raw      string
	Cost     float64
	Latency  int64
	Degraded bool
}

// CallStructured calls the completion port once at temperature 0.3 and
// parses the response against shape. On failure it retries exactly once at
// temperature 0.0 with the shape's corrective prompt, then degrades to the
// shape's safe fallback. Validation failure is never returned as an error;
// the returned error is non-nil only for context cancellation or quota
// exhaustion, which the surrounding phase cannot recover from.
func CallStructured[T any](ctx context.Context, client llm.CompletionClient, prompt string, shape Shape[T], log *logrus.Entry) (StructuredResult[T], error) {
	res := StructuredResult[T]{}

	value, ok, err := attempt(ctx, client, prompt, firstAttemptTemperature, shape, &res)
	if err != nil {
		res.Value = shape.Fallback()
		res.Degraded = true
		return res, err
	}
	if ok {
		res.Value = value
		return res, nil
	}

	retryPrompt := prompt + "\n\n" + retrySuffix(shape)
	value, ok, err = attempt(ctx, client, retryPrompt, retryTemperature, shape, &res)
	if err != nil {
		res.Value = shape.Fallback()
		res.Degraded = true
		return res, err
	}
	if ok {
		res.Value = value
		return res, nil
	}

	log.WithField("shape", shape.Name).Warn("structured output repair failed, using fallback")
	res.Value = shape.Fallback()
	res.Degraded = true
	return res, nil
}

func attempt[T any](ctx context.Context, client llm.CompletionClient, prompt string, temperature float64, shape Shape[T], res *StructuredResult[T]) (T, bool, error) {
	var zero T

	comp, err := client.Complete(ctx, llm.CompletionRequest{Prompt: prompt, Temperature: temperature})
	if err != nil {
		if ctx.Err() != nil {
			return zero, false, ctx.Err()
		}
		if errors.Is(err, llm.ErrQuotaExhausted) {
			return zero, false, err
		}
		// Transient provider failure after the port's own retries: treat
		// like a malformed response so the phase can degrade gracefully.
		return zero, false, nil
	}
	res.Raw = comp.Text
	res.Cost += comp.CostEstimate
	res.Latency += comp.LatencyMs

	var value T
	if err := Parse(comp.Text, &value); err != nil {
		return zero, false, nil
	}
	if shape.Normalize != nil {
		shape.Normalize(&value)
	}
	if shape.Validate != nil {
		if err := shape.Validate(&value); err != nil {
			return zero, false, nil
		}
	}
	return value, true, nil
}

func retrySuffix[T any](shape Shape[T]) string {
	if shape.RetryPrompt != "" {
		return fmt.Sprintf("%s\n\nSchema:\n%s", shape.RetryPrompt, shape.Schema)
	}
	return fmt.Sprintf("Your output was invalid. Here is the schema again; return ONLY a TOML document matching it:\n%s", shape.Schema)
}
