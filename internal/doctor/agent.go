package doctor

import (
	"context"
	"fmt"

	"github.com/greenhouse-agent/gha/internal/client"
	"github.com/greenhouse-agent/gha/internal/metrics"
)

// SwitchesCheck verifies /switches_state answers with a decodable list.
type SwitchesCheck struct {
	Client *client.Client
}

func (c *SwitchesCheck) Name() string     { return "agent_switches" }
func (c *SwitchesCheck) Category() string { return CategoryAgent }

func (c *SwitchesCheck) Run(ctx context.Context) CheckResult {
	list, err := c.Client.FetchSwitches(ctx)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Agent unreachable at %s", c.Client.BaseURL()),
			Suggestion: "Check the agent is running and api_host is right (try 'gha simulate' to test locally)",
		}
	}

	if len(list) == 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "Agent reports no switches",
			Suggestion: "Check the agent's device configuration",
		}
	}

	locked := 0
	for _, sw := range list {
		if sw.Locked() {
			locked++
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%d switch%s, %d under automatic control", len(list), pluralizeEs(len(list)), locked),
	}
}

func (c *SwitchesCheck) Fix() error {
	return nil
}

// MetricsCheck verifies /metrics answers and has readable sensor lines.
type MetricsCheck struct {
	Client *client.Client
	Parser *metrics.Parser
}

func (c *MetricsCheck) Name() string     { return "agent_metrics" }
func (c *MetricsCheck) Category() string { return CategoryAgent }

func (c *MetricsCheck) Run(ctx context.Context) CheckResult {
	text, err := c.Client.FetchMetricsText(ctx)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Metrics endpoint unreachable",
			Suggestion: "Check the agent exposes /metrics",
		}
	}

	parser := c.Parser
	if parser == nil {
		parser = metrics.NewParser()
	}
	rows, errs := parser.ParseWithErrors(text)

	if len(errs) > 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    fmt.Sprintf("%d sensor reading%s, %d malformed", len(rows), pluralize(len(rows)), len(errs)),
			Suggestion: fmt.Sprintf("First bad line %d: %q", errs[0].Line, errs[0].Text),
		}
	}

	if len(rows) == 0 {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No sensor readings match the suffix allow-list",
			Suggestion: "Check metrics.suffixes in your config",
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%d sensor reading%s", len(rows), pluralize(len(rows))),
	}
}

func (c *MetricsCheck) Fix() error {
	return nil
}

// NewAgentChecks creates the checks that talk to the agent.
func NewAgentChecks(c *client.Client, parser *metrics.Parser) []Check {
	return []Check{
		&SwitchesCheck{Client: c},
		&MetricsCheck{Client: c, Parser: parser},
	}
}

func pluralizeEs(n int) string {
	if n == 1 {
		return ""
	}
	return "es"
}
