// Package orchestrator runs one investment analysis end to end: dispatching
// the capability agents, synthesizing the narrative, and aggregating the
// final result under an explicit lifecycle state machine.
package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/aggregate"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/agents"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/dispatch"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/eventlog"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/metrics"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/services/generative"
)

// ReportSink persists completed analyses. Satisfied by *persistence.Store.
type ReportSink interface {
	SaveAnalysis(ctx context.Context, result *analysis.InvestmentAnalysis, history []*proto.AgentMsg) error
}

// Deps wires the orchestrator's collaborators. Events and Reports are
// optional; Recorder defaults to a no-op.
type Deps struct {
	Dispatcher     *dispatch.Dispatcher
	Narrative      *agents.NarrativeRunner
	Recorder       metrics.Recorder
	Events         *eventlog.Writer
	Reports        ReportSink
	RequestTimeout time.Duration
}

// Orchestrator coordinates a single analysis request. One instance serves
// exactly one request; construct a fresh one per Analyze call.
type Orchestrator struct {
	deps    Deps
	sm      *stateMachine
	history atomic.Pointer[proto.History]
	used    atomic.Bool
	logger  *logx.Logger
}

func New(deps Deps) (*Orchestrator, error) {
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("orchestrator requires a dispatcher")
	}
	if deps.Narrative == nil {
		return nil, fmt.Errorf("orchestrator requires a narrative runner")
	}
	if deps.Recorder == nil {
		deps.Recorder = metrics.NopRecorder{}
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 90 * time.Second
	}

	logger := logx.NewLogger(string(proto.RoleOrchestrator))
	return &Orchestrator{
		deps:   deps,
		sm:     newStateMachine(logger),
		logger: logger,
	}, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return o.sm.Current()
}

// MessageHistory returns copies of all messages recorded so far, in order.
func (o *Orchestrator) MessageHistory() []*proto.AgentMsg {
	history := o.history.Load()
	if history == nil {
		return nil
	}
	return history.Messages()
}

// Analyze runs the full pipeline for one request. Agent unavailability and
// deadline expiry degrade the result rather than failing; an error return
// means the request itself was invalid or an internal invariant broke.
func (o *Orchestrator) Analyze(ctx context.Context, req *analysis.AnalysisRequest) (*analysis.InvestmentAnalysis, error) {
	if !o.used.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("orchestrator instance already used; create a new one per request")
	}

	start := time.Now()

	if err := o.validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.deps.RequestTimeout)
	defer cancel()

	history := proto.NewHistory(req.ID)
	o.history.Store(history)

	// Dispatching
	if err := o.sm.TransitionTo(StateDispatching); err != nil {
		return nil, err
	}
	for _, role := range o.deps.Dispatcher.Roles() {
		msg := proto.NewAgentMsg(proto.KindRequest, proto.RoleOrchestrator, role)
		msg.SetPayload(proto.KeyRequestID, req.ID)
		msg.SetPayload(proto.KeyProperty, req.Property)
		msg.SetPayload(proto.KeyInvestorCtx, req.Investor)
		o.record(history, msg)
	}

	outcomes := o.deps.Dispatcher.Dispatch(ctx, req)

	// Collecting
	if err := o.sm.TransitionTo(StateCollecting); err != nil {
		return nil, err
	}
	for _, role := range o.deps.Dispatcher.Roles() {
		o.record(history, outcomeMessage(req.ID, outcomes[role]))
	}

	// Synthesizing
	if err := o.sm.TransitionTo(StateSynthesizing); err != nil {
		return nil, err
	}

	// If the request deadline already expired the narrative runner falls
	// back immediately, so synthesis still yields a degraded result from
	// whatever outcomes are in hand.
	input := narrativeInput(req, outcomes)
	reqMsg := proto.NewAgentMsg(proto.KindRequest, proto.RoleOrchestrator, proto.RoleNarrative)
	reqMsg.SetPayload(proto.KeyRequestID, req.ID)
	o.record(history, reqMsg)

	narrative, attempts := o.deps.Narrative.Run(ctx, input)
	if narrative == nil {
		// The runner guarantees a narrative even on exhaustion; a nil here
		// is a broken invariant.
		o.fail()
		return nil, fmt.Errorf("narrative runner returned no result")
	}

	narrMsg := proto.NewAgentMsg(proto.KindResult, proto.RoleNarrative, proto.RoleOrchestrator)
	narrMsg.SetPayload(proto.KeyRequestID, req.ID)
	narrMsg.SetPayload(proto.KeyNarrative, narrative)
	narrMsg.SetMetadata(proto.MetaAttempt, fmt.Sprintf("%d", attempts))
	narrMsg.SetMetadata(proto.MetaFallback, fmt.Sprintf("%t", narrative.Fallback))
	o.record(history, narrMsg)

	// Finalizing
	if err := o.sm.TransitionTo(StateFinalizing); err != nil {
		o.fail()
		return nil, err
	}

	result := aggregate.Aggregate(req, outcomes, narrative)
	o.deps.Recorder.ObserveAnalysis(result.Recommendation.String(), result.Degraded, time.Since(start))

	finalMsg := proto.NewAgentMsg(proto.KindFinal, proto.RoleOrchestrator, proto.RoleOrchestrator)
	finalMsg.SetPayload(proto.KeyRequestID, req.ID)
	finalMsg.SetPayload(proto.KeyAnalysis, result)
	finalMsg.SetMetadata(proto.MetaState, StateDone.String())
	o.record(history, finalMsg)

	if o.deps.Reports != nil {
		// Detach from the request deadline so a late finish still persists.
		if err := o.deps.Reports.SaveAnalysis(context.WithoutCancel(ctx), result, history.Messages()); err != nil {
			o.logger.Warn("failed to persist analysis %s: %v", req.ID, err)
		}
	}

	if err := o.sm.TransitionTo(StateDone); err != nil {
		return nil, err
	}

	o.logger.Info("analysis %s complete: recommendation=%s confidence=%.3f degraded=%t missing=%v",
		req.ID, result.Recommendation, result.OverallConfidence, result.Degraded, result.Missing)

	return result, nil
}

func (o *Orchestrator) validate(req *analysis.AnalysisRequest) error {
	if req == nil {
		_ = o.sm.TransitionTo(StateFailed)
		return fmt.Errorf("analysis request is nil")
	}
	if err := req.Validate(); err != nil {
		_ = o.sm.TransitionTo(StateFailed)
		return fmt.Errorf("invalid analysis request: %w", err)
	}
	return nil
}

func (o *Orchestrator) fail() {
	if err := o.sm.TransitionTo(StateFailed); err != nil {
		o.logger.Error("failed to enter FAILED state: %v", err)
	}
}

// record appends a message to the history and mirrors it to the event log.
// Event log failures are logged, never fatal.
func (o *Orchestrator) record(history *proto.History, msg *proto.AgentMsg) {
	if err := history.Append(msg); err != nil {
		o.logger.Error("failed to record message %s: %v", msg.ID, err)
		return
	}
	if o.deps.Events != nil {
		if err := o.deps.Events.WriteMessage(msg); err != nil {
			o.logger.Warn("failed to write event log entry: %v", err)
		}
	}
}

// outcomeMessage converts one agent outcome into its history message.
func outcomeMessage(requestID string, outcome agents.Outcome) *proto.AgentMsg {
	kind := proto.KindResult
	if !outcome.OK() {
		kind = proto.KindError
	}

	msg := proto.NewAgentMsg(kind, outcome.Role, proto.RoleOrchestrator)
	msg.SetPayload(proto.KeyRequestID, requestID)
	msg.SetPayload(proto.KeyOutcome, outcome.Status.String())
	msg.SetMetadata(proto.MetaDuration, fmt.Sprintf("%d", outcome.Duration.Milliseconds()))

	if outcome.OK() {
		switch outcome.Role {
		case proto.RoleValuation:
			msg.SetPayload(proto.KeyPrediction, outcome.Result.Prediction)
		case proto.RoleMarketIntel:
			msg.SetPayload(proto.KeyDocuments, outcome.Result.Documents)
		case proto.RoleRisk:
			msg.SetPayload(proto.KeyRiskAssessment, outcome.Result.Risk)
		}
	} else {
		msg.SetPayload(proto.KeyError, outcome.ErrorString())
	}

	return msg
}

// narrativeInput assembles the synthesis input from whatever the capability
// agents produced.
func narrativeInput(req *analysis.AnalysisRequest, outcomes map[proto.Role]agents.Outcome) generative.NarrativeInput {
	input := generative.NarrativeInput{Request: req}

	if outcome, ok := outcomes[proto.RoleValuation]; ok && outcome.OK() {
		input.Prediction = outcome.Result.Prediction
	}
	if outcome, ok := outcomes[proto.RoleMarketIntel]; ok && outcome.OK() {
		input.MarketDocs = outcome.Result.Documents
	}
	if outcome, ok := outcomes[proto.RoleRisk]; ok && outcome.OK() {
		input.Risk = outcome.Result.Risk
	}

	return input
}
