// Package manifest loads deployment manifests: the YAML file that
// names a component, an instance identifier, and the supplied prop
// values plus trigger configuration.
//
// Manifests are validated structurally against an embedded CUE schema
// before decoding, so shape errors surface with file positions instead
// of as zero values deep in the runtime.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	_ "embed"

	"github.com/spindle-dev/spindle/internal/trigger"
)

//go:embed schema.cue
var schemaSource string

// Error code constants for manifest loading.
const (
	ErrCodeNotFound    = "M001" // manifest file not found
	ErrCodeParseFailed = "M002" // YAML did not parse
	ErrCodeSchema      = "M003" // schema validation failed
	ErrCodeDecode      = "M004" // YAML decoded into the wrong shape
	ErrCodeInvalid     = "M005" // semantic validation failed
)

// Error is a manifest loading failure with a stable code.
type Error struct {
	Code    string
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPConfig configures the HTTP listener for manifests whose
// component declares an Http interface prop.
type HTTPConfig struct {
	// Listen is the bind address, e.g. ":8080".
	Listen string `yaml:"listen"`

	// ResponseTimeoutSeconds bounds how long a request waits for
	// respond(). Zero means the dispatcher default.
	ResponseTimeoutSeconds int `yaml:"response_timeout_seconds"`
}

// Manifest is one deployed instance: which component, under what
// identifier, with which prop values and trigger configuration.
type Manifest struct {
	Component string `yaml:"component"`
	Instance  string `yaml:"instance"`
	Owner     string `yaml:"owner"`

	// DB is the SQLite path holding this instance's durable state.
	// Empty means the CLI default.
	DB string `yaml:"db"`

	// Props are the supplied prop values, keyed by prop name.
	Props map[string]any `yaml:"props"`

	Timer *trigger.TimerConfig `yaml:"timer"`
	HTTP  *HTTPConfig          `yaml:"http"`
}

// Load reads, schema-validates, and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Code: ErrCodeNotFound, Path: path, Message: "manifest file not found"}
		}
		return nil, &Error{Code: ErrCodeNotFound, Path: path, Message: err.Error()}
	}
	return Parse(path, data)
}

// Parse validates and decodes manifest bytes. The path is used only
// for error reporting.
func Parse(path string, data []byte) (*Manifest, error) {
	if err := validateSchema(path, data); err != nil {
		return nil, err
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, &Error{Code: ErrCodeDecode, Path: path, Message: err.Error()}
	}

	if err := m.Validate(); err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Path: path, Message: err.Error()}
	}
	return &m, nil
}

// Validate applies the semantic rules the schema cannot express.
func (m *Manifest) Validate() error {
	if m.Component == "" {
		return fmt.Errorf("component is required")
	}
	if m.Instance == "" {
		return fmt.Errorf("instance is required")
	}
	if m.Timer != nil {
		if err := m.Timer.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateSchema unifies the YAML document with the embedded CUE
// schema and checks the result is consistent.
func validateSchema(path string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return &Error{Code: ErrCodeSchema, Path: path, Message: fmt.Sprintf("compiling schema: %v", err)}
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return &Error{Code: ErrCodeParseFailed, Path: path, Message: err.Error()}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &Error{Code: ErrCodeParseFailed, Path: path, Message: err.Error()}
	}

	unified := schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &Error{Code: ErrCodeSchema, Path: path, Message: err.Error()}
	}
	return nil
}
