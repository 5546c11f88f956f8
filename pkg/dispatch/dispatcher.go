// Package dispatch fans an analysis request out to the capability agents
// concurrently and collects every outcome.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/agents"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/logx"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/metrics"
	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/proto"
)

// Dispatcher runs the registered capability agents concurrently. One agent's
// timeout or failure never short-circuits the others, and nothing here
// retries: the outcome map reflects exactly one call per agent.
type Dispatcher struct {
	agentList []agents.Agent
	timeouts  map[proto.Role]time.Duration
	recorder  metrics.Recorder
	logger    *logx.Logger
}

// NewDispatcher creates a dispatcher over the given agents. Each agent needs
// a timeout entry; missing entries get a conservative default.
func NewDispatcher(agentList []agents.Agent, timeouts map[proto.Role]time.Duration, recorder metrics.Recorder) (*Dispatcher, error) {
	if len(agentList) == 0 {
		return nil, fmt.Errorf("dispatcher requires at least one agent")
	}
	seen := make(map[proto.Role]bool, len(agentList))
	for _, agent := range agentList {
		if seen[agent.Role()] {
			return nil, fmt.Errorf("duplicate agent for role %s", agent.Role())
		}
		seen[agent.Role()] = true
	}
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}

	return &Dispatcher{
		agentList: agentList,
		timeouts:  timeouts,
		recorder:  recorder,
		logger:    logx.NewLogger("dispatch"),
	}, nil
}

const defaultAgentTimeout = 10 * time.Second

// Dispatch runs every agent and returns their outcomes keyed by role. The
// call returns only after all agents have finished or timed out.
func (d *Dispatcher) Dispatch(ctx context.Context, req *analysis.AnalysisRequest) map[proto.Role]agents.Outcome {
	outcomes := make(map[proto.Role]agents.Outcome, len(d.agentList))
	var mu sync.Mutex
	var wg sync.WaitGroup

	d.logger.Info("dispatching request %s to %d agents", req.ID, len(d.agentList))

	for _, agent := range d.agentList {
		wg.Add(1)
		go func(agent agents.Agent) {
			defer wg.Done()

			timeout, ok := d.timeouts[agent.Role()]
			if !ok || timeout <= 0 {
				timeout = defaultAgentTimeout
			}

			outcome := agents.Invoke(ctx, agent, req, timeout)
			d.recorder.ObserveAgentCall(string(outcome.Role), outcome.Status.String(), outcome.Duration)

			switch outcome.Status {
			case agents.StatusSuccess:
				d.logger.Debug("agent %s succeeded in %s", outcome.Role, outcome.Duration)
			default:
				d.logger.Warn("agent %s ended with %s after %s: %v", outcome.Role, outcome.Status, outcome.Duration, outcome.Err)
			}

			mu.Lock()
			outcomes[outcome.Role] = outcome
			mu.Unlock()
		}(agent)
	}

	wg.Wait()
	return outcomes
}

// Roles returns the dispatchable roles in registration order.
func (d *Dispatcher) Roles() []proto.Role {
	roles := make([]proto.Role, len(d.agentList))
	for i, agent := range d.agentList {
		roles[i] = agent.Role()
	}
	return roles
}
