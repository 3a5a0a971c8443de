package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindle-dev/spindle/internal/component"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func slackApp() *component.App {
	return &component.App{
		Slug: "slack",
		PropDefinitions: map[string]*component.UserInput{
			"channel": {
				Type:        "string",
				Label:       "Channel",
				Description: "Channel to watch",
			},
			"limit": {
				Type:     "integer",
				Label:    "Limit",
				Optional: true,
				Default:  50,
			},
		},
	}
}

func TestResolve_SuppliedValueWins(t *testing.T) {
	schema := []component.Prop{
		{Name: "url", Spec: &component.UserInput{Type: "string"}},
	}

	rs, err := Resolve(schema, map[string]any{"url": "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", rs.Value("url"))
}

func TestResolve_OptionalFallsBackToDefault(t *testing.T) {
	schema := []component.Prop{
		{Name: "retries", Spec: &component.UserInput{Type: "integer", Optional: true, Default: 3}},
	}

	rs, err := Resolve(schema, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, rs.Value("retries"))
}

func TestResolve_MissingRequiredFails(t *testing.T) {
	schema := []component.Prop{
		{Name: "url", Spec: &component.UserInput{Type: "string"}},
	}

	_, err := Resolve(schema, nil)
	require.Error(t, err)

	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeMissingRequired, rerr.Code)
	assert.Equal(t, "url", rerr.Prop)
}

func TestResolve_DefaultOnRequiredIsDefinitionError(t *testing.T) {
	schema := []component.Prop{
		{Name: "url", Spec: &component.UserInput{Type: "string", Default: "x"}},
	}

	_, err := Resolve(schema, map[string]any{"url": "y"})
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeInvalidDefault, rerr.Code)
}

func TestResolve_TypeMismatch(t *testing.T) {
	schema := []component.Prop{
		{Name: "count", Spec: &component.UserInput{Type: "integer"}},
	}

	_, err := Resolve(schema, map[string]any{"count": "ten"})
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeTypeMismatch, rerr.Code)
}

func TestResolve_InterfaceAndServiceHaveNoUserValue(t *testing.T) {
	schema := []component.Prop{
		{Name: "timer", Spec: &component.Interface{Kind: component.InterfaceTimer, Default: map[string]any{"intervalSeconds": 60}}},
		{Name: "db", Spec: &component.Service{Kind: component.ServiceKeyValueStore}},
	}

	rs, err := Resolve(schema, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"intervalSeconds": 60}, rs.Value("timer"))
	assert.Nil(t, rs.Value("db"))
}

func TestResolve_AppCarriesSuppliedAuth(t *testing.T) {
	schema := []component.Prop{
		{Name: "slack", Spec: slackApp()},
	}

	rs, err := Resolve(schema, map[string]any{
		"slack": map[string]any{"token": "xoxb-1"},
	})
	require.NoError(t, err)

	resolved, ok := rs.Get("slack")
	require.True(t, ok)
	require.NotNil(t, resolved.App)
	assert.Equal(t, "slack", resolved.App.Slug)
	assert.Equal(t, map[string]any{"token": "xoxb-1"}, resolved.Value)
}

func TestResolve_RefInheritsBaseDefinition(t *testing.T) {
	schema := []component.Prop{
		{Name: "slack", Spec: slackApp()},
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "channel",
		}},
	}

	rs, err := Resolve(schema, map[string]any{"channel": "#general"})
	require.NoError(t, err)

	resolved, ok := rs.Get("channel")
	require.True(t, ok)
	input, ok := resolved.Spec.(*component.UserInput)
	require.True(t, ok)
	assert.Equal(t, "Channel", input.Label)
	assert.Equal(t, "#general", resolved.Value)
	assert.Equal(t, "slack", resolved.App.Slug)
}

func TestResolve_RefOverrideMergesFieldByField(t *testing.T) {
	schema := []component.Prop{
		{Name: "slack", Spec: slackApp()},
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "channel",
			Override: component.Override{
				Label:    strPtr("Alert channel"),
				Optional: boolPtr(true),
				Default:  "#alerts",
			},
		}},
	}

	rs, err := Resolve(schema, nil)
	require.NoError(t, err)

	resolved, _ := rs.Get("channel")
	input := resolved.Spec.(*component.UserInput)

	// Overridden fields replace, untouched fields inherit.
	assert.Equal(t, "Alert channel", input.Label)
	assert.Equal(t, "Channel to watch", input.Description)
	assert.Equal(t, "string", input.Type)
	assert.True(t, input.Optional)
	assert.Equal(t, "#alerts", rs.Value("channel"))
}

func TestResolve_OverrideDoesNotMutateBase(t *testing.T) {
	app := slackApp()
	schema := []component.Prop{
		{Name: "slack", Spec: app},
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "channel",
			Override:   component.Override{Label: strPtr("Changed")},
		}},
	}

	_, err := Resolve(schema, map[string]any{"channel": "#x"})
	require.NoError(t, err)
	assert.Equal(t, "Channel", app.PropDefinitions["channel"].Label)
}

func TestResolve_RefToUndeclaredApp(t *testing.T) {
	schema := []component.Prop{
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "channel",
		}},
	}

	_, err := Resolve(schema, map[string]any{"channel": "#x"})
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeBadReference, rerr.Code)
}

func TestResolve_RefToLaterAppIsForwardReference(t *testing.T) {
	schema := []component.Prop{
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "channel",
		}},
		{Name: "slack", Spec: slackApp()},
	}

	_, err := Resolve(schema, map[string]any{"channel": "#x"})
	assert.True(t, IsForwardReference(err))
}

func TestResolve_RefToMissingDefinition(t *testing.T) {
	schema := []component.Prop{
		{Name: "slack", Spec: slackApp()},
		{Name: "user", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "user",
		}},
	}

	_, err := Resolve(schema, map[string]any{"user": "u1"})
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeBadReference, rerr.Code)
}

func TestResolve_InputValuesFnSeesEarlierProps(t *testing.T) {
	schema := []component.Prop{
		{Name: "slack", Spec: slackApp()},
		{Name: "team", Spec: &component.UserInput{Type: "string"}},
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "channel",
			Uses:       []string{"team"},
			InputValuesFn: func(prev component.PropValues) (map[string]any, error) {
				team, err := prev.Get("team")
				if err != nil {
					return nil, err
				}
				return map[string]any{"team": team}, nil
			},
		}},
	}

	rs, err := Resolve(schema, map[string]any{"team": "eng", "channel": "#eng"})
	require.NoError(t, err)

	resolved, _ := rs.Get("channel")
	assert.Equal(t, map[string]any{"team": "eng"}, resolved.InputValues)
}

func TestResolve_DeclaredForwardUseRejectedStatically(t *testing.T) {
	ran := false
	schema := []component.Prop{
		{Name: "slack", Spec: slackApp()},
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "channel",
			Uses:       []string{"team"},
			InputValuesFn: func(prev component.PropValues) (map[string]any, error) {
				ran = true
				return nil, nil
			},
		}},
		{Name: "team", Spec: &component.UserInput{Type: "string"}},
	}

	_, err := Resolve(schema, map[string]any{"channel": "#x", "team": "eng"})
	assert.True(t, IsForwardReference(err))
	assert.False(t, ran, "rejection must happen before any user function runs")
}

func TestResolve_UndeclaredForwardGetFails(t *testing.T) {
	schema := []component.Prop{
		{Name: "slack", Spec: slackApp()},
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:        "slack",
			Definition: "channel",
			InputValuesFn: func(prev component.PropValues) (map[string]any, error) {
				_, err := prev.Get("team")
				return nil, err
			},
		}},
		{Name: "team", Spec: &component.UserInput{Type: "string", Optional: true}},
	}

	_, err := Resolve(schema, map[string]any{"channel": "#x"})
	assert.True(t, IsForwardReference(err))
}

func TestResolve_LiteralInputValues(t *testing.T) {
	schema := []component.Prop{
		{Name: "slack", Spec: slackApp()},
		{Name: "channel", Spec: &component.PropDefinitionRef{
			App:         "slack",
			Definition:  "channel",
			InputValues: map[string]any{"kind": "public"},
		}},
	}

	rs, err := Resolve(schema, map[string]any{"channel": "#x"})
	require.NoError(t, err)

	resolved, _ := rs.Get("channel")
	assert.Equal(t, map[string]any{"kind": "public"}, resolved.InputValues)
}

func TestResolvedSet_NamesKeepDeclarationOrder(t *testing.T) {
	schema := []component.Prop{
		{Name: "b", Spec: &component.UserInput{Type: "string", Optional: true}},
		{Name: "a", Spec: &component.UserInput{Type: "string", Optional: true}},
	}

	rs, err := Resolve(schema, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, rs.Names())
}
