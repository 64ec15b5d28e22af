package nutrisense

import (
	"maps"
	"slices"
	"strings"
)

// State is the record threaded through one workflow run. It is created per
// request and never shared between runs.
type State struct {
	SessionID       string           `json:"session_id"`
	Messages        []Message        `json:"messages"`
	Intent          *Intent          `json:"intent,omitempty"`
	Recipe          *Recipe          `json:"recipe,omitempty"`
	DietPlan        *DietPlan        `json:"diet_plan,omitempty"`
	NutritionalInfo *NutritionalInfo `json:"nutritional_info,omitempty"`
	Visualization   string           `json:"visualization,omitempty"`
	ClinicalCheck   *ClinicalCheck   `json:"clinical_check,omitempty"`
	Blocked         string           `json:"blocked,omitempty"`
	Error           string           `json:"error,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// NewState starts a run with the user's query as the only message.
func NewState(sessionID, query string) *State {
	return &State{
		SessionID: sessionID,
		Messages:  []Message{UserMessage(query)},
		Metadata:  map[string]any{},
	}
}

// Update is the partial state a step returns. Zero fields are left alone.
type Update struct {
	Messages        []Message
	Intent          *Intent
	Recipe          *Recipe
	DietPlan        *DietPlan
	NutritionalInfo *NutritionalInfo
	Visualization   string
	ClinicalCheck   *ClinicalCheck
	Blocked         string
	Error           string
	Metadata        map[string]any
}

// Apply merges u into s: messages append, set fields replace, metadata keys merge.
func (s *State) Apply(u Update) {
	s.Messages = append(s.Messages, u.Messages...)
	if u.Intent != nil {
		s.Intent = u.Intent
	}
	if u.Recipe != nil {
		s.Recipe = u.Recipe
	}
	if u.DietPlan != nil {
		s.DietPlan = u.DietPlan
	}
	if u.NutritionalInfo != nil {
		s.NutritionalInfo = u.NutritionalInfo
	}
	if u.Visualization != "" {
		s.Visualization = u.Visualization
	}
	if u.ClinicalCheck != nil {
		s.ClinicalCheck = u.ClinicalCheck
	}
	if u.Blocked != "" {
		s.Blocked = u.Blocked
	}
	if u.Error != "" {
		s.Error = u.Error
	}
	if len(u.Metadata) > 0 {
		if s.Metadata == nil {
			s.Metadata = make(map[string]any, len(u.Metadata))
		}
		maps.Copy(s.Metadata, u.Metadata)
	}
}

// Snapshot copies the state so later steps cannot mutate what a consumer
// already holds. Structured results are written once and shared.
func (s *State) Snapshot() State {
	out := *s
	out.Messages = slices.Clone(s.Messages)
	out.Metadata = maps.Clone(s.Metadata)
	return out
}

// LastMessage returns the content of the most recent message of any role.
func (s *State) LastMessage() string {
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Content
}

// Query returns the most recent user message.
func (s *State) Query() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Terminal reports whether the run was halted by the guardrail.
func (s *State) Terminal() bool {
	return strings.TrimSpace(s.Blocked) != "" || (s.ClinicalCheck != nil && s.ClinicalCheck.IsClinical)
}

type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentRecipe
	ContentDietPlan
	ContentNutritionalInfo
)

func (k ContentKind) String() string {
	switch k {
	case ContentRecipe:
		return "recipe"
	case ContentDietPlan:
		return "diet_plan"
	case ContentNutritionalInfo:
		return "nutritional_info"
	default:
		return "none"
	}
}

// Content is the generated result of a run. Exactly one pointer matching
// Kind is set.
type Content struct {
	Kind            ContentKind
	Recipe          *Recipe
	DietPlan        *DietPlan
	NutritionalInfo *NutritionalInfo
}

// Content returns the populated content variant, or ErrConflictingContent if
// more than one is set.
func (s *State) Content() (Content, error) {
	var found []Content
	if s.Recipe != nil {
		found = append(found, Content{Kind: ContentRecipe, Recipe: s.Recipe})
	}
	if s.DietPlan != nil {
		found = append(found, Content{Kind: ContentDietPlan, DietPlan: s.DietPlan})
	}
	if s.NutritionalInfo != nil {
		found = append(found, Content{Kind: ContentNutritionalInfo, NutritionalInfo: s.NutritionalInfo})
	}
	switch len(found) {
	case 0:
		return Content{Kind: ContentNone}, nil
	case 1:
		return found[0], nil
	default:
		return Content{}, ErrConflictingContent
	}
}
