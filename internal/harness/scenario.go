package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a sequence of store operations with expectations.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Steps run in order against one store.
	Steps []Step `yaml:"steps"`

	// Assertions check the store after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one store operation.
type Step struct {
	// Op is one of the Op constants.
	Op string `yaml:"op"`

	// Ty is the partition's type tag. Required by every op except
	// delete_everywhere, tags and freeze.
	Ty string `yaml:"ty,omitempty"`

	// Value is the document, written as YAML and stored as compact JSON.
	Value any `yaml:"value,omitempty"`

	// Raw is the document as exact JSON text. It takes precedence over
	// Value.
	Raw string `yaml:"raw,omitempty"`

	// Hash addresses the document directly, as hex or an alias.
	Hash string `yaml:"hash,omitempty"`

	// Expect is checked against the step's outcome. Without it the step
	// must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's outcome. Unset fields are not checked.
type Expect struct {
	// Found is the get result.
	Found *bool `yaml:"found,omitempty"`

	// Value is compared to the content get returned, as parsed JSON.
	Value any `yaml:"value,omitempty"`

	// Count is the number of get_all entries.
	Count *int `yaml:"count,omitempty"`

	// Tags is the tags result, or the partitions delete_everywhere
	// removed the document from.
	Tags []string `yaml:"tags,omitempty"`

	// Error is the expected error class, "" for success.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the final state.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Ty is the partition checked by contains, absent and count.
	Ty string `yaml:"ty,omitempty"`

	// Value, Raw and Hash address the document, as in Step.
	Value any    `yaml:"value,omitempty"`
	Raw   string `yaml:"raw,omitempty"`
	Hash  string `yaml:"hash,omitempty"`

	// Count is the expected number of entries.
	Count *int `yaml:"count,omitempty"`

	// Tags is the expected partition list, in canonical order.
	Tags []string `yaml:"tags,omitempty"`
}

// Step operations.
const (
	OpWrite            = "write"
	OpGet              = "get"
	OpGetAll           = "get_all"
	OpDelete           = "delete"
	OpDeleteAll        = "delete_all"
	OpDeleteEverywhere = "delete_everywhere"
	OpTags             = "tags"
	OpFreeze           = "freeze"
)

// Assertion types.
const (
	AssertContains = "contains"
	AssertAbsent   = "absent"
	AssertCount    = "count"
	AssertTags     = "tags"
)

// Error classes reported in traces and matched by Expect.Error.
const (
	ErrClassReadOnly    = "read_only"
	ErrClassNotExist    = "not_exist"
	ErrClassCodec       = "codec"
	ErrClassEncode      = "encode"
	ErrClassInvalidTag  = "invalid_tag"
	ErrClassInvalidHash = "invalid_hash"
	ErrClassBackend     = "backend"
	ErrClassOther       = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are errors, so typos like "asserts:" are caught.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch step.Op {
		case OpWrite, OpGet, OpDelete:
			if step.Ty == "" {
				return fmt.Errorf("steps[%d]: %s requires ty", i, step.Op)
			}
			if !addressed(step.Value, step.Raw, step.Hash) {
				return fmt.Errorf("steps[%d]: %s requires value, raw or hash", i, step.Op)
			}
			if step.Op == OpWrite && step.Hash != "" {
				return fmt.Errorf("steps[%d]: write takes a document, not a hash", i)
			}
		case OpGetAll, OpDeleteAll:
			if step.Ty == "" {
				return fmt.Errorf("steps[%d]: %s requires ty", i, step.Op)
			}
		case OpDeleteEverywhere:
			if !addressed(step.Value, step.Raw, step.Hash) {
				return fmt.Errorf("steps[%d]: %s requires value, raw or hash", i, step.Op)
			}
		case OpTags, OpFreeze:
		case "":
			return fmt.Errorf("steps[%d]: op is required", i)
		default:
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertContains, AssertAbsent:
			if a.Ty == "" || !addressed(a.Value, a.Raw, a.Hash) {
				return fmt.Errorf("assertions[%d]: %s requires ty and a document", i, a.Type)
			}
		case AssertCount:
			if a.Ty == "" || a.Count == nil {
				return fmt.Errorf("assertions[%d]: count requires ty and count", i)
			}
		case AssertTags:
			if a.Tags == nil {
				return fmt.Errorf("assertions[%d]: tags requires tags (use [] for none)", i)
			}
		case "":
			return fmt.Errorf("assertions[%d]: type is required", i)
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}

func addressed(value any, raw, hash string) bool {
	return value != nil || raw != "" || hash != ""
}
