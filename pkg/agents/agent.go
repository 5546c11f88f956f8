// Package agents implements the capability agents (valuation, market
// intelligence, risk) behind a uniform handler contract, plus the narrative
// runner with its retry policy and rule-based fallback.
package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
)

// Result is the union of capability agent outputs. Each agent fills exactly
// one field.
type Result struct {
	Prediction *analysis.Prediction
	Documents  []analysis.Document
	Risk       *analysis.RiskAssessment
}

// Agent is the uniform contract every capability agent implements. Handle
// must respect ctx cancellation; panics are converted to failures by Invoke.
type Agent interface {
	Role() proto.Role
	Handle(ctx context.Context, req *analysis.AnalysisRequest) (*Result, error)
}

// Invoke runs one agent under its timeout, converting panics and deadline
// expiry into the corresponding outcome statuses.
func Invoke(ctx context.Context, agent Agent, req *analysis.AnalysisRequest, timeout time.Duration) Outcome {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		result *Result
		err    error
	}
	ch := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{nil, fmt.Errorf("agent %s panicked: %v", agent.Role(), r)}
			}
		}()
		result, err := agent.Handle(callCtx, req)
		ch <- reply{result, err}
	}()

	select {
	case <-callCtx.Done():
		status := StatusTimeout
		if errors.Is(callCtx.Err(), context.Canceled) {
			status = StatusFailure
		}
		return Outcome{
			Role:     agent.Role(),
			Status:   status,
			Err:      fmt.Errorf("agent %s: %w", agent.Role(), callCtx.Err()),
			Duration: time.Since(start),
		}
	case r := <-ch:
		if r.err != nil {
			status := StatusFailure
			if errors.Is(r.err, context.DeadlineExceeded) {
				status = StatusTimeout
			}
			return Outcome{
				Role:     agent.Role(),
				Status:   status,
				Err:      r.err,
				Duration: time.Since(start),
			}
		}
		return Outcome{
			Role:     agent.Role(),
			Status:   StatusSuccess,
			Result:   r.result,
			Duration: time.Since(start),
		}
	}
}
