package props

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindle-dev/spindle/internal/component"
)

func TestFetchOptionsPage_StaticOptionsAreOnePage(t *testing.T) {
	schema := []component.Prop{
		{Name: "color", Spec: &component.UserInput{
			Type:     "string",
			Optional: true,
			Options: []component.Option{
				{Label: "Red", Value: "red"},
				{Label: "Blue", Value: "blue"},
			},
		}},
	}
	rs, err := Resolve(schema, nil)
	require.NoError(t, err)

	page, err := FetchOptionsPage(context.Background(), rs, "color", 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Options, 2)
	assert.True(t, Exhausted(page))

	// Later pages are empty.
	page, err = FetchOptionsPage(context.Background(), rs, "color", 1, "")
	require.NoError(t, err)
	assert.Empty(t, page.Options)
}

func TestFetchOptionsPage_ProviderPagination(t *testing.T) {
	provider := func(_ context.Context, page int, prevContext string) (component.OptionsPage, error) {
		switch page {
		case 0:
			if prevContext != "" {
				return component.OptionsPage{}, fmt.Errorf("page 0 must not carry context, got %q", prevContext)
			}
			return component.OptionsPage{
				Options:       []component.Option{{Label: "One", Value: 1}},
				NextPageToken: "cursor-1",
			}, nil
		case 1:
			if prevContext != "cursor-1" {
				return component.OptionsPage{}, fmt.Errorf("expected cursor-1, got %q", prevContext)
			}
			return component.OptionsPage{
				Options: []component.Option{{Label: "Two", Value: 2}},
			}, nil
		default:
			return component.OptionsPage{}, nil
		}
	}

	schema := []component.Prop{
		{Name: "item", Spec: &component.UserInput{Type: "integer", Optional: true, OptionsFn: provider}},
	}
	rs, err := Resolve(schema, nil)
	require.NoError(t, err)

	page0, err := FetchOptionsPage(context.Background(), rs, "item", 0, "")
	require.NoError(t, err)
	require.Len(t, page0.Options, 1)
	assert.False(t, Exhausted(page0))

	page1, err := FetchOptionsPage(context.Background(), rs, "item", 1, page0.NextPageToken)
	require.NoError(t, err)
	require.Len(t, page1.Options, 1)
	assert.True(t, Exhausted(page1))
}

func TestFetchOptionsPage_ProviderErrorIsWrapped(t *testing.T) {
	boom := fmt.Errorf("upstream unavailable")
	schema := []component.Prop{
		{Name: "item", Spec: &component.UserInput{
			Type:     "string",
			Optional: true,
			OptionsFn: func(context.Context, int, string) (component.OptionsPage, error) {
				return component.OptionsPage{}, boom
			},
		}},
	}
	rs, err := Resolve(schema, nil)
	require.NoError(t, err)

	_, err = FetchOptionsPage(context.Background(), rs, "item", 0, "")
	var perr *OptionsProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "item", perr.Prop)
	assert.ErrorIs(t, err, boom)
}

func TestFetchOptionsPage_ResolutionNeverCallsProvider(t *testing.T) {
	called := false
	schema := []component.Prop{
		{Name: "item", Spec: &component.UserInput{
			Type:     "string",
			Optional: true,
			OptionsFn: func(context.Context, int, string) (component.OptionsPage, error) {
				called = true
				return component.OptionsPage{}, nil
			},
		}},
	}

	_, err := Resolve(schema, nil)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestFetchOptionsPage_UnknownProp(t *testing.T) {
	rs, err := Resolve(nil, nil)
	require.NoError(t, err)

	_, err = FetchOptionsPage(context.Background(), rs, "nope", 0, "")
	var rerr *ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCodeBadReference, rerr.Code)
}
