package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/casstore/internal/ty"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Op)
			if event.Ty != "" {
				fmt.Fprintf(&buf, " %s", event.Ty)
			}
			if event.Hash != "" {
				fmt.Fprintf(&buf, " %s", event.Hash)
			}
			if event.Error != "" {
				fmt.Fprintf(&buf, " error=%s", event.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// evaluateAssertions runs every assertion and returns one message per
// failure.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, trace []TraceEvent) []string {
	var msgs []string
	for i, a := range assertions {
		if err := h.evaluate(ctx, a, trace); err != nil {
			msgs = append(msgs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return msgs
}

func (h *Harness) evaluate(ctx context.Context, a Assertion, trace []TraceEvent) error {
	if a.Type == AssertTags {
		tags, err := h.store.Tags(ctx)
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		got := tagStrings(tags)
		if !slices.Equal(got, a.Tags) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("tags %v", a.Tags),
				Actual:   fmt.Sprintf("tags %v", got),
				Trace:    trace,
			}
		}
		return nil
	}

	tag, err := ty.Parse(a.Ty)
	if err != nil {
		return err
	}

	if a.Type == AssertCount {
		entries, err := h.store.GetAllRaw(ctx, tag)
		if err != nil {
			return fmt.Errorf("get_all %s: %w", tag, err)
		}
		if len(entries) != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d entries in %s", *a.Count, tag),
				Actual:   fmt.Sprintf("%d entries", len(entries)),
				Trace:    trace,
			}
		}
		return nil
	}

	hash, err := h.address(a.Value, a.Raw, a.Hash)
	if err != nil {
		return err
	}
	content, ok, err := h.store.GetRaw(ctx, tag, hash)
	if err != nil {
		return fmt.Errorf("get %s: %w", tag, err)
	}
	name := h.alias(hash)

	switch a.Type {
	case AssertAbsent:
		if ok {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s absent from %s", name, tag),
				Actual:   fmt.Sprintf("found %s", content),
				Trace:    trace,
			}
		}
	case AssertContains:
		if !ok {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s in %s", name, tag),
				Actual:   "not found",
				Trace:    trace,
			}
		}
		if a.Value != nil {
			if msg := compareContent(a.Value, content); msg != "" {
				return &AssertionError{
					Type:     a.Type,
					Expected: fmt.Sprintf("%s in %s with equal content", name, tag),
					Actual:   msg,
					Trace:    trace,
				}
			}
		}
	}
	return nil
}
