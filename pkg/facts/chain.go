package facts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mensylisir/hostboard/pkg/connector"
)

// candidate is one rung of a fallback chain: an optional availability
// probe, a way to obtain raw text, and a parser that turns the text into
// typed records. Candidates in a chain are tried strictly in order.
type candidate[T any] struct {
	// Tool is probed with LookPath before the candidate runs. Empty
	// means no probe is needed (procfs reads, SDK calls wrapped as
	// sources).
	Tool string

	// Source produces the raw text for Parse. Most candidates use
	// commandSource or fileSource.
	Source func(ctx context.Context, conn connector.Connector) (string, error)

	// Parse extracts records from the raw output. Returning zero
	// records without an error is treated the same as a parse failure:
	// the chain advances to the next candidate.
	Parse func(output string) ([]T, error)
}

// commandSource runs a shell command through the connector and returns
// its stdout. Partial stdout captured before a failure is still handed
// to the parser when non-empty, so a tool that dies midway can still
// contribute records.
func commandSource(cmd string) func(ctx context.Context, conn connector.Connector) (string, error) {
	return func(ctx context.Context, conn connector.Connector) (string, error) {
		stdout, _, err := conn.Exec(ctx, cmd, &connector.ExecOptions{})
		if err != nil {
			if len(strings.TrimSpace(string(stdout))) > 0 {
				return string(stdout), nil
			}
			return "", err
		}
		return string(stdout), nil
	}
}

// fileSource reads one or more files through the connector and
// concatenates their contents. Files that cannot be read are skipped;
// an error is returned only when nothing was readable.
func fileSource(paths ...string) func(ctx context.Context, conn connector.Connector) (string, error) {
	return func(ctx context.Context, conn connector.Connector) (string, error) {
		var sb strings.Builder
		var lastErr error
		for _, p := range paths {
			data, err := conn.ReadFile(ctx, p)
			if err != nil {
				lastErr = err
				continue
			}
			sb.Write(data)
			if len(data) > 0 && data[len(data)-1] != '\n' {
				sb.WriteByte('\n')
			}
		}
		if sb.Len() == 0 {
			if lastErr != nil {
				return "", lastErr
			}
			return "", connector.ErrEmptyOutput
		}
		return sb.String(), nil
	}
}

// collectFirst walks a fallback chain and returns the records of the
// first candidate that is available, runs, and parses into at least one
// record, together with the name of the backend that served the family.
// Every failure mode (missing tool, timeout, non-zero exit, empty
// output, parse mismatch) is recovered locally by advancing the chain;
// collectFirst never returns an error. A fully exhausted chain returns
// nil records and an empty backend name, and the caller substitutes its
// family placeholder.
func collectFirst[T any](ctx context.Context, e *Engine, family string, chain []candidate[T]) ([]T, string) {
	records, backend := tryChain(ctx, e, family, chain)
	if records == nil {
		e.log.Warnf("facts: %s: all candidates exhausted, using placeholder data", family)
	}
	return records, backend
}

// tryChain is collectFirst without the exhaustion warning, for callers
// that stitch several partial chains together.
func tryChain[T any](ctx context.Context, e *Engine, family string, chain []candidate[T]) ([]T, string) {
	for _, c := range chain {
		name := c.Tool
		if name == "" {
			name = "builtin"
		}
		if c.Tool != "" {
			if _, err := e.conn.LookPath(ctx, c.Tool); err != nil {
				if connector.IsToolMissing(err) {
					e.log.Debugf("facts: %s: %s not found, trying next candidate", family, c.Tool)
					continue
				}
				// Inconclusive probe: still attempt the command and
				// let the execution failure advance the chain.
				e.log.Debugf("facts: %s: probe for %s inconclusive: %v", family, c.Tool, err)
			}
		}
		out, err := c.Source(ctx, e.conn)
		if err != nil {
			e.log.Debugf("facts: %s: %s failed: %v", family, name, err)
			continue
		}
		if strings.TrimSpace(out) == "" {
			e.log.Debugf("facts: %s: %s produced no output: %v", family, name, connector.ErrEmptyOutput)
			continue
		}
		records, err := c.Parse(out)
		if err != nil {
			e.log.Debugf("facts: %s: %s output did not parse: %v", family, name, err)
			continue
		}
		if len(records) == 0 {
			e.log.Debugf("facts: %s: %s parsed to zero records, trying next candidate", family, name)
			continue
		}
		e.log.Debugf("facts: %s: served by %s (%d records)", family, name, len(records))
		return records, name
	}
	return nil, ""
}

// parseError builds a uniform parse-mismatch error for extractor parsers.
func parseError(backend, detail string) error {
	return fmt.Errorf("%s: %s: %w", backend, detail, connector.ErrParseMismatch)
}
