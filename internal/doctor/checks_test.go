package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status   CheckStatus
		expected string
	}{
		{StatusPass, "pass"},
		{StatusWarn, "warn"},
		{StatusFail, "fail"},
		{CheckStatus(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.String())
		})
	}
}

func TestCheckResultJSON(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "x", Category: CategoryAgent, Status: StatusWarn, Message: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","category":"AGENT","status":"warn","message":"m"}`, string(data))
}

// mockCheck is a test implementation of Check.
type mockCheck struct {
	name     string
	category string
	result   CheckResult
	fixErr   error
	fixCalls int
}

func (m *mockCheck) Name() string                    { return m.name }
func (m *mockCheck) Category() string                { return m.category }
func (m *mockCheck) Run(context.Context) CheckResult { return m.result }
func (m *mockCheck) Fix() error {
	m.fixCalls++
	return m.fixErr
}

func TestRunAll(t *testing.T) {
	checks := []Check{
		&mockCheck{name: "check1", category: "TEST", result: CheckResult{Status: StatusPass, Message: "OK"}},
		&mockCheck{name: "check2", category: "TEST", result: CheckResult{Status: StatusFail, Message: "Failed"}},
	}

	results := RunAll(context.Background(), checks)

	require.Len(t, results, 2)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, StatusFail, results[1].Status)
	assert.Equal(t, "check1", results[0].Name, "name filled in from the check")
	assert.Equal(t, "TEST", results[1].Category)
}

func TestRunAllParallel(t *testing.T) {
	checks := []Check{
		&mockCheck{name: "check1", result: CheckResult{Status: StatusPass}},
		&mockCheck{name: "check2", result: CheckResult{Status: StatusWarn}},
		&mockCheck{name: "check3", result: CheckResult{Status: StatusFail}},
	}

	results := RunAllParallel(context.Background(), checks)

	require.Len(t, results, 3)
	for i, status := range []CheckStatus{StatusPass, StatusWarn, StatusFail} {
		assert.Equal(t, status, results[i].Status)
	}
}

func TestFixAll(t *testing.T) {
	fixable := &mockCheck{name: "fixable", result: CheckResult{Status: StatusWarn, Fixable: true}}
	passing := &mockCheck{name: "passing", result: CheckResult{Status: StatusPass, Fixable: true}}
	manual := &mockCheck{name: "manual", result: CheckResult{Status: StatusFail}}
	checks := []Check{fixable, passing, manual}

	fixed, err := FixAll(checks, RunAll(context.Background(), checks))

	require.NoError(t, err)
	assert.Equal(t, []string{"fixable"}, fixed)
	assert.Equal(t, 1, fixable.fixCalls)
	assert.Zero(t, passing.fixCalls)
	assert.Zero(t, manual.fixCalls)
}

func TestFixAllError(t *testing.T) {
	broken := &mockCheck{name: "broken", result: CheckResult{Status: StatusFail, Fixable: true}, fixErr: errors.New("nope")}
	checks := []Check{broken}

	_, err := FixAll(checks, RunAll(context.Background(), checks))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixing broken")
}

func TestCountsAndSummary(t *testing.T) {
	results := []CheckResult{
		{Status: StatusPass},
		{Status: StatusWarn, Fixable: true},
		{Status: StatusFail},
		{Status: StatusPass, Fixable: true},
	}

	counts := CountByStatus(results)
	assert.Equal(t, 2, counts[StatusPass])
	assert.Equal(t, 1, counts[StatusWarn])
	assert.Equal(t, 1, counts[StatusFail])
	assert.True(t, HasFailures(results))
	assert.Equal(t, 1, FixableCount(results))
	assert.Equal(t, "2 issues found", Summary(results))

	assert.False(t, HasFailures(results[:1]))
	assert.Equal(t, "Everything looks good", Summary(results[:1]))
	assert.Equal(t, "1 issue found", Summary(results[1:2]))
}
