package component

import "context"

// PropSpec is a sealed interface over the prop kinds.
// Only UserInput, Interface, Service, App, and PropDefinitionRef
// implement it.
type PropSpec interface {
	propSpec()
}

// Option is one selectable (label, value) pair for a UserInput prop.
type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// OptionsPage is one page of options from a dynamic provider.
// An empty Options slice or an empty NextPageToken terminates
// pagination.
type OptionsPage struct {
	Options       []Option `json:"options"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// OptionsProvider generates options one page at a time. It must be a
// pure function of (page, prevContext): callers drive pagination by
// passing the previously returned NextPageToken until exhaustion.
type OptionsProvider func(ctx context.Context, page int, prevContext string) (OptionsPage, error)

// UserInput is a prop whose value is supplied by the configuring user.
//
// Default is only legal when Optional is true. Options and OptionsFn
// are mutually exclusive; OptionsFn is evaluated lazily via the
// options capability, never during resolution.
type UserInput struct {
	// Type names the expected value shape: "string", "integer",
	// "boolean", "object", "string[]", "integer[]", or "any".
	Type string

	Label       string
	Description string
	Optional    bool
	Default     any

	Options   []Option
	OptionsFn OptionsProvider
}

func (*UserInput) propSpec() {}

// InterfaceKind names platform-supplied trigger infrastructure.
type InterfaceKind string

const (
	InterfaceTimer InterfaceKind = "timer"
	InterfaceHTTP  InterfaceKind = "http"
)

// Interface is a prop whose value is platform-supplied infrastructure
// rather than user input.
type Interface struct {
	Kind    InterfaceKind
	Default any
}

func (*Interface) propSpec() {}

// ServiceKind names platform-managed capabilities.
type ServiceKind string

const (
	ServiceKeyValueStore ServiceKind = "kv"
)

// Service is a prop granting access to a platform-managed capability.
type Service struct {
	Kind ServiceKind
}

func (*Service) propSpec() {}

// App is a prop binding a third-party integration: a slug, reusable
// prop definitions, and methods. Resolved credentials for the app are
// supplied externally; the runtime only consumes them.
type App struct {
	Slug            string
	PropDefinitions map[string]*UserInput
	Methods         map[string]Method
}

func (*App) propSpec() {}

// PropValues is a read-only snapshot of already-resolved prop values.
// Get fails for names that are undeclared or declared later in the
// schema: resolution order follows declaration order.
type PropValues interface {
	Get(name string) (any, error)
}

// InputValuesFunc computes a ref's input values from earlier props.
type InputValuesFunc func(prev PropValues) (map[string]any, error)

// PropDefinitionRef resolves a reusable prop definition owned by an
// App prop, producing a base UserInput that the local Override may
// replace field-by-field.
type PropDefinitionRef struct {
	// App is the prop name of the App this ref points into.
	App string

	// Definition names the entry in the App's PropDefinitions.
	Definition string

	// InputValues are literal inputs consumed by the definition's
	// options provider. Mutually exclusive with InputValuesFn.
	InputValues map[string]any

	// InputValuesFn computes inputs from previously resolved props.
	InputValuesFn InputValuesFunc

	// Uses declares the earlier props InputValuesFn reads. Validated
	// against declaration order before anything executes.
	Uses []string

	// Override replaces base fields; nil fields keep the base value.
	Override Override
}

func (*PropDefinitionRef) propSpec() {}

// Override carries field-by-field replacements for a referenced prop
// definition. Pointer fields distinguish "unset" from zero values.
type Override struct {
	Type        *string
	Label       *string
	Description *string
	Optional    *bool
	Default     any
	Options     []Option
	OptionsFn   OptionsProvider
}
