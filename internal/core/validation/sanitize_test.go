package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/taskvault/taskvault/internal/core/domain"
)

var sanitizeInputs = []string{
	"",
	"Buy milk",
	"  padded  ",
	"<b>Buy</b> milk",
	"<script>alert('x')</script>Buy milk",
	`<img src=x onerror="alert(1)">`,
	"Tom & Jerry",
	"5 < 6 and 7 > 3",
	"&lt;script&gt;",
	`<a href="javascript:alert(1)">click</a>`,
	"quotes \" and ' apostrophes",
	"<div><p>nested <i>tags</i></p></div>",
}

func TestSanitizeText_Idempotent(t *testing.T) {
	for _, in := range sanitizeInputs {
		once := SanitizeText(in)
		twice := SanitizeText(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestSanitizeText_StripsMarkup(t *testing.T) {
	for _, in := range sanitizeInputs {
		out := SanitizeText(in)
		if strings.ContainsAny(out, "<>") {
			t.Fatalf("markup survived for %q: %q", in, out)
		}
		if strings.Contains(strings.ToLower(out), "alert(1)") && strings.Contains(in, "onerror") {
			t.Fatalf("attribute content survived for %q: %q", in, out)
		}
	}
}

func TestSanitizeText_Examples(t *testing.T) {
	cases := map[string]string{
		"Buy milk":                          "Buy milk",
		"  Buy milk  ":                      "Buy milk",
		"<b>Buy</b> milk":                   "Buy milk",
		"<script>alert(1)</script>":         "",
		"<script>alert(1)</script>Buy milk": "Buy milk",
	}
	for in, want := range cases {
		if got := SanitizeText(in); got != want {
			t.Fatalf("SanitizeText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeTaskFields(t *testing.T) {
	done := true
	in := domain.TaskFields{
		Title:       "<em>Buy</em> milk",
		Description: "<script>steal()</script>semi-skimmed",
		Completed:   &done,
	}

	out := SanitizeTaskFields(in)

	if out.Title != "Buy milk" {
		t.Fatalf("unexpected title: %q", out.Title)
	}
	if out.Description != "semi-skimmed" {
		t.Fatalf("unexpected description: %q", out.Description)
	}
	if out.Completed != &done {
		t.Fatalf("non-text fields must pass through untouched")
	}
}

func TestSanitizeTaskPatch_LeavesAbsentFieldsNil(t *testing.T) {
	title := "<b>new</b>"
	out := SanitizeTaskPatch(domain.TaskPatch{Title: &title})

	if out.Title == nil || *out.Title != "new" {
		t.Fatalf("unexpected title: %v", out.Title)
	}
	if out.Description != nil {
		t.Fatalf("absent description must stay nil")
	}
	if title != "<b>new</b>" {
		t.Fatalf("input patch must not be mutated")
	}
}

func TestValidateTaskFields_LimitsApplyAfterEscaping(t *testing.T) {
	// 150 ampersands fit the raw limit but escape to 750 characters.
	f := SanitizeTaskFields(domain.TaskFields{Title: strings.Repeat("&", 150)})
	if err := ValidateTaskFields(f); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for escaped title of %d chars, got %v", len(f.Title), err)
	}

	ok := SanitizeTaskFields(domain.TaskFields{Title: "Tom & Jerry", Description: strings.Repeat("a", domain.MaxDescriptionLength)})
	if err := ValidateTaskFields(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateTaskFields_Problems(t *testing.T) {
	err := ValidateTaskFields(domain.TaskFields{Description: strings.Repeat("d", domain.MaxDescriptionLength+1)})

	var ve *domain.ValidationError
	if !errors.As(err, &ve) || len(ve.Problems) != 2 {
		t.Fatalf("expected missing title and long description, got %v", err)
	}
}

func TestValidateTaskPatch(t *testing.T) {
	empty := ""
	long := SanitizeText(strings.Repeat("<", 100))
	fine := "Buy milk"

	tests := []struct {
		name    string
		patch   domain.TaskPatch
		wantErr bool
	}{
		{"absent fields", domain.TaskPatch{}, false},
		{"empty title", domain.TaskPatch{Title: &empty}, true},
		{"escaped title too long", domain.TaskPatch{Title: &long}, true},
		{"escaped description within limit", domain.TaskPatch{Description: &long}, false},
		{"valid title", domain.TaskPatch{Title: &fine}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTaskPatch(tt.patch)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTaskPatch() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
