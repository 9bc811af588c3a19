package question

import (
	"errors"
	"testing"
)

func TestParseDetail(t *testing.T) {
	detail, err := ParseDetail(TypeInput, []byte(`{"placeholder":"your name","required":true}`))
	if err != nil {
		t.Fatalf("parse input detail: %v", err)
	}
	input, ok := detail.(InputDetail)
	if !ok {
		t.Fatalf("detail = %T, want InputDetail", detail)
	}
	if input.Placeholder != "your name" || !input.Required {
		t.Fatalf("input detail = %+v", input)
	}

	detail, err = ParseDetail(TypeSelect, []byte(`{"multiselect":true,"options":[{"value":"red"},{"value":"blue"}]}`))
	if err != nil {
		t.Fatalf("parse select detail: %v", err)
	}
	sel, ok := detail.(SelectDetail)
	if !ok {
		t.Fatalf("detail = %T, want SelectDetail", detail)
	}
	if !sel.Multiselect || len(sel.Options) != 2 {
		t.Fatalf("select detail = %+v", sel)
	}
}

func TestParseDetailUnknownType(t *testing.T) {
	_, err := ParseDetail("RatingType", []byte(`{}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}

func TestParseDetailNilPayloadUsesDefaults(t *testing.T) {
	detail, err := ParseDetail(TypeInput, nil)
	if err != nil {
		t.Fatalf("parse nil payload: %v", err)
	}
	if _, ok := detail.(InputDetail); !ok {
		t.Fatalf("detail = %T, want InputDetail", detail)
	}
}

func TestSelectDetailValidate(t *testing.T) {
	tests := []struct {
		name    string
		detail  SelectDetail
		wantErr bool
	}{
		{name: "valid", detail: SelectDetail{Options: []Option{{Value: "a"}, {Value: "b"}}}},
		{name: "no options", detail: SelectDetail{}, wantErr: true},
		{name: "empty option value", detail: SelectDetail{Options: []Option{{Value: ""}}}, wantErr: true},
		{name: "duplicate option", detail: SelectDetail{Options: []Option{{Value: "a"}, {Value: "a"}}}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.detail.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
