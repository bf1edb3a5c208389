package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/roach88/casstore/internal/backend"
	"github.com/roach88/casstore/internal/digest"
	"github.com/roach88/casstore/internal/store"
	"github.com/roach88/casstore/internal/ty"
)

// Harness runs one scenario against one store.
type Harness struct {
	store   *store.Store
	seq     int
	aliases map[digest.ContentHash]string
	byAlias map[string]digest.ContentHash
}

// stepError is a failed store operation, classified for the trace.
type stepError struct {
	class string
	err   error
}

func (e *stepError) Error() string { return e.err.Error() }

// Run executes scenario against st and returns the result. The error is
// non-nil only when a step cannot be run at all, for example because its
// value has no JSON form; failed expectations are reported in the result.
//
// st should be empty. Run does not close it.
func Run(ctx context.Context, scenario *Scenario, st *store.Store) (*Result, error) {
	h := &Harness{
		store:   st,
		aliases: make(map[digest.ContentHash]string),
		byAlias: make(map[string]digest.ContentHash),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.execute(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions, result.Trace) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, i int, step Step, result *Result) error {
	h.seq++
	event := TraceEvent{Seq: h.seq, Op: step.Op, Ty: step.Ty}

	out, err := h.apply(ctx, step, &event)
	var sErr *stepError
	if errors.As(err, &sErr) {
		event.Error = sErr.class
	} else if err != nil {
		return err
	}
	result.AddTrace(event)

	for _, msg := range checkExpect(step, event, out, sErr) {
		result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Op, msg))
	}
	return nil
}

// outcome holds what a step returned, for expect checks.
type outcome struct {
	content []byte
	removed []string
}

func (h *Harness) apply(ctx context.Context, step Step, event *TraceEvent) (outcome, error) {
	var out outcome

	switch step.Op {
	case OpFreeze:
		h.store = store.New(backend.ReadOnly(h.store.Backend()), store.WithCodec(h.store.Codec()))
		return out, nil

	case OpTags:
		tags, err := h.store.Tags(ctx)
		if err != nil {
			return out, classify(err)
		}
		event.Tags = tagStrings(tags)
		return out, nil

	case OpDeleteEverywhere:
		hash, err := h.address(step.Value, step.Raw, step.Hash)
		if err != nil {
			return out, err
		}
		event.Hash = h.alias(hash)
		removed, err := h.store.DeleteEverywhere(ctx, hash)
		out.removed = tagStrings(removed)
		event.Tags = out.removed
		if err != nil {
			return out, classify(err)
		}
		return out, nil
	}

	tag, err := ty.Parse(step.Ty)
	if err != nil {
		return out, &stepError{class: ErrClassInvalidTag, err: err}
	}
	event.Ty = tag.String()

	switch step.Op {
	case OpWrite:
		doc, err := document(step.Value, step.Raw)
		if err != nil {
			return out, err
		}
		hash, err := h.store.WriteJSON(ctx, tag, doc)
		if err != nil {
			return out, classify(err)
		}
		event.Hash = h.alias(hash)

	case OpGet:
		hash, err := h.address(step.Value, step.Raw, step.Hash)
		if err != nil {
			return out, err
		}
		event.Hash = h.alias(hash)
		content, ok, err := h.store.GetRaw(ctx, tag, hash)
		if err != nil {
			return out, classify(err)
		}
		event.Found = &ok
		out.content = content

	case OpGetAll:
		entries, err := h.store.GetAllRaw(ctx, tag)
		if err != nil {
			return out, classify(err)
		}
		for j := 1; j < len(entries); j++ {
			if bytes.Compare(entries[j-1].Hash.Bytes(), entries[j].Hash.Bytes()) >= 0 {
				return out, fmt.Errorf("get_all %s: entries out of hash order at %d", tag, j)
			}
		}
		count := len(entries)
		event.Count = &count
		event.Hashes = make([]string, 0, count)
		for _, e := range entries {
			event.Hashes = append(event.Hashes, h.alias(e.Hash))
		}
		slices.SortFunc(event.Hashes, compareAliases)

	case OpDelete:
		hash, err := h.address(step.Value, step.Raw, step.Hash)
		if err != nil {
			return out, err
		}
		event.Hash = h.alias(hash)
		if err := h.store.DeleteRaw(ctx, tag, hash); err != nil {
			return out, classify(err)
		}

	case OpDeleteAll:
		if err := h.store.DeleteAllRaw(ctx, tag); err != nil {
			return out, classify(err)
		}
	}
	return out, nil
}

// address resolves a step's document reference to a hash.
func (h *Harness) address(value any, raw, hash string) (digest.ContentHash, error) {
	if hash != "" {
		if known, ok := h.byAlias[hash]; ok {
			return known, nil
		}
		parsed, err := digest.ParseHash(hash)
		if err != nil {
			return digest.ContentHash{}, &stepError{class: ErrClassInvalidHash, err: err}
		}
		return parsed, nil
	}
	doc, err := document(value, raw)
	if err != nil {
		return digest.ContentHash{}, err
	}
	sum, _, err := digest.DigestJSON(doc)
	if err != nil {
		var encErr *digest.EncodeError
		if !errors.As(err, &encErr) {
			err = &store.CodecError{Codec: "json", Op: "unmarshal", Err: err}
		}
		return digest.ContentHash{}, classify(err)
	}
	return sum, nil
}

// alias returns the short name of hash, assigning the next free one on
// first use.
func (h *Harness) alias(hash digest.ContentHash) string {
	if a, ok := h.aliases[hash]; ok {
		return a
	}
	a := "h" + strconv.Itoa(len(h.aliases)+1)
	h.aliases[hash] = a
	h.byAlias[a] = hash
	return a
}

// compareAliases orders "h2" before "h10".
func compareAliases(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// document returns raw, or value encoded as compact JSON.
func document(value any, raw string) ([]byte, error) {
	if raw != "" {
		return []byte(raw), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value has no JSON form: %w", err)
	}
	return data, nil
}

// classify maps a store error to its class.
func classify(err error) *stepError {
	var (
		codecErr  *store.CodecError
		encodeErr *digest.EncodeError
		backErr   *backend.Error
	)
	class := ErrClassOther
	switch {
	case errors.Is(err, backend.ErrReadOnly):
		class = ErrClassReadOnly
	case errors.Is(err, backend.ErrNotExist):
		class = ErrClassNotExist
	case errors.As(err, &codecErr):
		class = ErrClassCodec
	case errors.As(err, &encodeErr):
		class = ErrClassEncode
	case errors.As(err, &backErr):
		class = ErrClassBackend
	}
	return &stepError{class: class, err: err}
}

func checkExpect(step Step, event TraceEvent, out outcome, sErr *stepError) []string {
	var msgs []string
	want := step.Expect
	if want == nil {
		want = &Expect{}
	}

	switch {
	case sErr != nil && want.Error == "":
		return append(msgs, fmt.Sprintf("unexpected %s error: %v", sErr.class, sErr.err))
	case sErr == nil && want.Error != "":
		return append(msgs, fmt.Sprintf("expected %s error, got success", want.Error))
	case sErr != nil && sErr.class != want.Error:
		return append(msgs, fmt.Sprintf("expected %s error, got %s: %v", want.Error, sErr.class, sErr.err))
	case sErr != nil:
		return msgs
	}

	if want.Found != nil && (event.Found == nil || *event.Found != *want.Found) {
		msgs = append(msgs, fmt.Sprintf("expected found=%v", *want.Found))
	}
	if want.Value != nil {
		if msg := compareContent(want.Value, out.content); msg != "" {
			msgs = append(msgs, msg)
		}
	}
	if want.Count != nil && (event.Count == nil || *event.Count != *want.Count) {
		got := "none"
		if event.Count != nil {
			got = strconv.Itoa(*event.Count)
		}
		msgs = append(msgs, fmt.Sprintf("expected count %d, got %s", *want.Count, got))
	}
	if want.Tags != nil && !slices.Equal(want.Tags, event.Tags) {
		msgs = append(msgs, fmt.Sprintf("expected tags %v, got %v", want.Tags, event.Tags))
	}
	return msgs
}

// compareContent compares stored JSON content to an expected YAML value
// after parsing both, so formatting and key order are ignored.
func compareContent(want any, content []byte) string {
	if content == nil {
		return "expected content, got none"
	}
	wantJSON, err := json.Marshal(want)
	if err != nil {
		return fmt.Sprintf("expected value has no JSON form: %v", err)
	}
	var expected, actual any
	if err := json.Unmarshal(wantJSON, &expected); err != nil {
		return fmt.Sprintf("expected value: %v", err)
	}
	if err := json.Unmarshal(content, &actual); err != nil {
		return fmt.Sprintf("stored content is not JSON: %v", err)
	}
	if !reflect.DeepEqual(expected, actual) {
		return fmt.Sprintf("expected content %s, got %s", wantJSON, content)
	}
	return ""
}

func tagStrings(tags []ty.Ty) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}
