/*
 * Copyright (c) 2021 - present Kurtosis Technologies LLC.
 * All Rights Reserved.
 */

package contract_runner

import (
	"encoding/json"
	"fmt"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxReportedValueLen = 64
	truncationSuffix    = "..."
)

var (
	passMark    = color.New(color.FgGreen, color.Bold).Sprint("PASS")
	failMark    = color.New(color.FgRed, color.Bold).Sprint("FAIL")
	skippedMark = color.New(color.FgYellow).Sprint("SKIPPED")
)

type RunResult struct {
	ContractID string
	Mode       RunMode
	Outcomes   []*CallOutcome

	// Set when a fail-fast run stopped at a failed call; Skipped holds the calls that were never issued
	Aborted bool
	Skipped []CallDescriptor
}

func (result *RunResult) Failed() []*CallOutcome {
	failed := []*CallOutcome{}
	for _, outcome := range result.Outcomes {
		if !outcome.IsSuccess() {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Err aggregates every per-call failure, or returns nil if all issued calls succeeded
func (result *RunResult) Err() error {
	var aggregate *multierror.Error
	for _, outcome := range result.Failed() {
		aggregate = multierror.Append(aggregate, outcome.Err)
	}
	return aggregate.ErrorOrNil()
}

// Outcome returns the most recent outcome of the named function, or nil if it was never issued
func (result *RunResult) Outcome(functionName string) *CallOutcome {
	for idx := len(result.Outcomes) - 1; idx >= 0; idx-- {
		if result.Outcomes[idx].Descriptor.FunctionName == functionName {
			return result.Outcomes[idx]
		}
	}
	return nil
}

func (result *RunResult) OutcomesFor(functionName string) []*CallOutcome {
	matching := []*CallOutcome{}
	for _, outcome := range result.Outcomes {
		if outcome.Descriptor.FunctionName == functionName {
			matching = append(matching, outcome)
		}
	}
	return matching
}

// Report writes a line per call with its logs or error, followed by a summary table
func (result *RunResult) Report(writer io.Writer) {
	fmt.Fprintf(writer, "Dev Account ID: %v\n", result.ContractID)
	for _, outcome := range result.Outcomes {
		name := outcome.Descriptor.FunctionName
		if outcome.IsSuccess() {
			fmt.Fprintf(writer, "%v Function '%v' executed successfully.\n", passMark, name)
			fmt.Fprintf(writer, "    Logs: %v\n", formatLogs(outcome.Logs))
			if len(outcome.ReturnValue) > 0 {
				fmt.Fprintf(writer, "    Return value: %v\n", outcome.String())
			}
		} else {
			fmt.Fprintf(writer, "%v Test failed for '%v' with error: %v\n", failMark, name, rootMessage(outcome.Err))
		}
	}
	for _, descriptor := range result.Skipped {
		fmt.Fprintf(writer, "%v Function '%v' was not called because an earlier call failed\n", skippedMark, descriptor.FunctionName)
	}

	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"#", "Function", "Args", "Deposit", "Gas", "Result", "Duration"})
	table.SetAutoWrapText(false)
	for idx, outcome := range result.Outcomes {
		mark := passMark
		if !outcome.IsSuccess() {
			mark = failMark
		}
		table.Append(describeRow(idx+1, outcome.Descriptor, mark, outcome.Duration.Round(time.Millisecond).String()))
	}
	for idx, descriptor := range result.Skipped {
		table.Append(describeRow(len(result.Outcomes)+idx+1, descriptor, skippedMark, "-"))
	}
	table.SetFooter([]string{"", "", "", "", "", fmt.Sprintf("%v failed", len(result.Failed())), result.Mode.String()})
	table.Render()
}

func describeRow(position int, descriptor CallDescriptor, mark string, duration string) []string {
	return []string{
		fmt.Sprintf("%d", position),
		descriptor.FunctionName,
		truncate(formatArgs(descriptor.Args)),
		descriptor.Deposit.HumanString(),
		descriptor.Gas.String(),
		mark,
		duration,
	}
}

func formatArgs(args interface{}) string {
	if args == nil {
		return "{}"
	}
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(argsBytes)
}

func formatLogs(logs []string) string {
	if len(logs) == 0 {
		return "[]"
	}
	quoted := make([]string, len(logs))
	for idx, line := range logs {
		quoted[idx] = fmt.Sprintf("%q", line)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// truncate limits the value to maxReportedValueLen runes, never splitting a multi-byte character
func truncate(value string) string {
	runes := []rune(value)
	if len(runes) <= maxReportedValueLen {
		return value
	}
	return string(runes[:maxReportedValueLen-utf8.RuneCountInString(truncationSuffix)]) + truncationSuffix
}

// rootMessage strips the stack trace lines that stacktrace errors carry, keeping the messages
func rootMessage(err error) string {
	if err == nil {
		return ""
	}
	messages := []string{}
	for _, line := range strings.Split(err.Error(), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "---") {
			continue
		}
		messages = append(messages, strings.TrimPrefix(trimmed, "Caused by: "))
	}
	return strings.Join(messages, ": ")
}
