package props

import (
	"context"

	"github.com/spindle-dev/spindle/internal/component"
)

// FetchOptionsPage pulls one page of options for a resolved prop.
//
// This is the explicit pull operation used by the configuring
// collaborator (UI/CLI): resolution never calls providers. Static
// options are served as a single page. Callers drive pagination by
// passing the previously returned NextPageToken until Exhausted
// reports true.
func FetchOptionsPage(ctx context.Context, rs *ResolvedSet, prop string, page int, prevContext string) (component.OptionsPage, error) {
	resolved, ok := rs.Get(prop)
	if !ok {
		return component.OptionsPage{}, &ResolutionError{
			Code:    ErrCodeBadReference,
			Prop:    prop,
			Message: "prop is not declared",
		}
	}

	input, ok := resolved.Spec.(*component.UserInput)
	if !ok {
		return component.OptionsPage{}, &ResolutionError{
			Code:    ErrCodeBadReference,
			Prop:    prop,
			Message: "prop has no options",
		}
	}

	if input.OptionsFn == nil {
		if page > 0 {
			return component.OptionsPage{}, nil
		}
		return component.OptionsPage{Options: input.Options}, nil
	}

	result, err := input.OptionsFn(ctx, page, prevContext)
	if err != nil {
		return component.OptionsPage{}, &OptionsProviderError{Prop: prop, Page: page, Err: err}
	}
	return result, nil
}

// Exhausted reports whether pagination should stop: the provider
// returned no options or no continuation token.
func Exhausted(page component.OptionsPage) bool {
	return len(page.Options) == 0 || page.NextPageToken == ""
}
