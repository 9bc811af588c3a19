package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Question type tags. The set is closed: adding a question kind means
// adding a tag here plus a codec entry in detail.go.
const (
	TypeInput  = "InputType"
	TypeSelect = "SelectType"
)

type Question struct {
	ID              int64     `json:"id"`
	QuestionnaireID int64     `json:"questionnaire"`
	Type            string    `json:"type"`
	Label           string    `json:"label"`
	Key             string    `json:"key"`
	Sequence        int       `json:"sequence"`
	CreatedBy       *int64    `json:"created_by,omitempty"`
	UpdatedBy       *int64    `json:"updated_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Detail          Detail    `json:"question_detail"`
}

// Detail is the per-type payload of a question. It is joined to the
// question by key, not by foreign key, so an answer or detail row can
// outlive a re-typed question.
type Detail interface {
	Tag() string
	Validate() error
}

type Option struct {
	Value string `json:"value"`
}

type InputDetail struct {
	Placeholder string `json:"placeholder"`
	OtherField  bool   `json:"other_field"`
	Required    bool   `json:"required"`
}

func (InputDetail) Tag() string { return TypeInput }

func (d InputDetail) Validate() error {
	if len(d.Placeholder) > 200 {
		return fmt.Errorf("%w: placeholder too long", ErrInvalidInput)
	}
	return nil
}

type SelectDetail struct {
	Multiselect bool     `json:"multiselect"`
	HTMLSelect  bool     `json:"html_select"`
	OtherField  bool     `json:"other_field"`
	Required    bool     `json:"required"`
	Options     []Option `json:"options"`
}

func (SelectDetail) Tag() string { return TypeSelect }

func (d SelectDetail) Validate() error {
	if len(d.Options) == 0 {
		return fmt.Errorf("%w: select question needs at least one option", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(d.Options))
	for _, opt := range d.Options {
		if opt.Value == "" {
			return fmt.Errorf("%w: empty option value", ErrInvalidInput)
		}
		if _, dup := seen[opt.Value]; dup {
			return fmt.Errorf("%w: duplicate option value %q", ErrInvalidInput, opt.Value)
		}
		seen[opt.Value] = struct{}{}
	}
	return nil
}

// OptionValues returns the option strings in display order.
func (d SelectDetail) OptionValues() []string {
	values := make([]string, len(d.Options))
	for i, opt := range d.Options {
		values[i] = opt.Value
	}
	return values
}

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnknownType           = errors.New("unknown question type")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	ErrDetailNotFound        = errors.New("question detail not found")
)

// ParseDetail decodes a raw question_detail payload for the given type tag.
func ParseDetail(typeTag string, raw json.RawMessage) (Detail, error) {
	codec, ok := detailCodecs[typeTag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeTag)
	}
	return codec.parse(raw)
}
