package editform

import (
	"context"
	"fmt"
	"strings"

	"github.com/greg-hellings/execadmin/pkg/backend"
)

// Lookup prompt names.
const (
	PromptOptType           = "OptType"
	PromptIncentiveGroup    = "IncentiveGroup"
	PromptUserProfile       = "UserProfile"
	PromptParameterGroup    = "ParameterGroup"
	PromptAppLoginUser      = "AppLoginUser"
	PromptUnloadingLocation = "UnloadingLocation"
	PromptExecutiveGroups   = "ExecutiveGroups"
)

type promptSource struct {
	fetch func(ctx context.Context, f *Form) ([]backend.PromptItem, error)
	apply func(f *Form, item backend.PromptItem)
}

var prompts = map[string]promptSource{
	PromptOptType: {
		fetch: func(ctx context.Context, f *Form) ([]backend.PromptItem, error) {
			return f.be.GetNewOptTypePrompt(ctx)
		},
		apply: func(f *Form, it backend.PromptItem) {
			f.SetOperationType(it.Code, it.Description)
		},
	},
	PromptIncentiveGroup: {
		fetch: func(ctx context.Context, f *Form) ([]backend.PromptItem, error) {
			return f.be.GetIncentiveGroupPrompt(ctx)
		},
		apply: func(f *Form, it backend.PromptItem) {
			f.Record.Profile.IncentiveGroup, f.Record.Profile.IncentiveGroupDesc = it.Code, it.Description
		},
	},
	PromptUserProfile: {
		fetch: func(ctx context.Context, f *Form) ([]backend.PromptItem, error) {
			return f.be.GetUserProfilePrompt(ctx)
		},
		apply: func(f *Form, it backend.PromptItem) {
			f.Record.Profile.UserProfile, f.Record.Profile.UserProfileName = it.Code, it.Description
		},
	},
	PromptParameterGroup: {
		fetch: func(ctx context.Context, f *Form) ([]backend.PromptItem, error) {
			return f.be.GetParameterGroup(ctx)
		},
		apply: func(f *Form, it backend.PromptItem) {
			f.Record.Other.Parameter, f.Record.Other.ParameterDescription = it.Code, it.Description
		},
	},
	PromptAppLoginUser: {
		fetch: func(ctx context.Context, f *Form) ([]backend.PromptItem, error) {
			return f.be.GetAppLoginUser(ctx)
		},
		apply: func(f *Form, it backend.PromptItem) {
			f.Record.Other.AppUserName, f.Record.Other.UserFullName = it.Code, it.Description
		},
	},
	PromptUnloadingLocation: {
		fetch: func(ctx context.Context, f *Form) ([]backend.PromptItem, error) {
			return f.be.GetUnloadingLocation(ctx, strings.TrimSpace(f.Record.Stock.StockTerritory))
		},
		apply: func(f *Form, it backend.PromptItem) {
			f.Record.Stock.DefUnloadingLocation, f.Record.Stock.DefUnloadingLocationDes = it.Code, it.Description
		},
	},
	PromptExecutiveGroups: {
		fetch: func(ctx context.Context, f *Form) ([]backend.PromptItem, error) {
			if f.groups == nil {
				f.loadExecutiveGroups(ctx)
			}
			return f.ExecutiveGroups(), nil
		},
		apply: func(f *Form, it backend.PromptItem) {
			f.Record.Profile.ExecutiveGroup = it.Code
		},
	},
}

// PromptEnabled reports whether the named prompt may be used. The parameter
// group prompt needs hierarchy type "1".
func (f *Form) PromptEnabled(name string) bool {
	if _, ok := prompts[name]; !ok {
		return false
	}
	if name == PromptParameterGroup {
		return strings.TrimSpace(f.hierarchyType) == "1"
	}
	return true
}

// Prompt loads the options of the named lookup prompt.
func (f *Form) Prompt(ctx context.Context, name string) ([]backend.PromptItem, error) {
	src, ok := prompts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPromptDisabled, name)
	}
	if !f.PromptEnabled(name) {
		return nil, fmt.Errorf("%w: %q", ErrPromptDisabled, name)
	}
	items, err := src.fetch(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", name, err)
	}
	return items, nil
}

// ApplyPrompt copies a picked prompt item into the fields the prompt feeds.
func (f *Form) ApplyPrompt(name string, item backend.PromptItem) error {
	src, ok := prompts[name]
	if !ok || !f.PromptEnabled(name) {
		return fmt.Errorf("%w: %q", ErrPromptDisabled, name)
	}
	item.Code = strings.TrimSpace(item.Code)
	item.Description = strings.TrimSpace(item.Description)
	src.apply(f, item)
	return nil
}
