package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/taskvault/taskvault/internal/core/domain"
)

// strict removes every element; script and style bodies are dropped with them.
var strict = bluemonday.StrictPolicy()

// SanitizeText strips markup from s and trims surrounding whitespace.
// Applying it twice gives the same result as applying it once.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(strict.Sanitize(s))
}

// SanitizeTaskFields cleans the free-text fields of a new task.
func SanitizeTaskFields(f domain.TaskFields) domain.TaskFields {
	f.Title = SanitizeText(f.Title)
	f.Description = SanitizeText(f.Description)
	return f
}

// SanitizeTaskPatch cleans whichever free-text fields the patch supplies.
func SanitizeTaskPatch(p domain.TaskPatch) domain.TaskPatch {
	if p.Title != nil {
		title := SanitizeText(*p.Title)
		p.Title = &title
	}
	if p.Description != nil {
		desc := SanitizeText(*p.Description)
		p.Description = &desc
	}
	return p
}

// ValidateTaskFields checks sanitized create fields. Escaping can lengthen
// text, so limits are enforced on the stored form.
func ValidateTaskFields(f domain.TaskFields) error {
	var problems []string
	if f.Title == "" {
		problems = append(problems, "title is required")
	}
	problems = appendTooLong(problems, "title", f.Title, domain.MaxTitleLength)
	problems = appendTooLong(problems, "description", f.Description, domain.MaxDescriptionLength)
	return domain.NewValidationError(problems...)
}

// ValidateTaskPatch checks the sanitized fields a patch supplies.
func ValidateTaskPatch(p domain.TaskPatch) error {
	var problems []string
	if p.Title != nil {
		if *p.Title == "" {
			problems = append(problems, "title must not be empty")
		}
		problems = appendTooLong(problems, "title", *p.Title, domain.MaxTitleLength)
	}
	if p.Description != nil {
		problems = appendTooLong(problems, "description", *p.Description, domain.MaxDescriptionLength)
	}
	return domain.NewValidationError(problems...)
}

func appendTooLong(problems []string, field, value string, limit int) []string {
	if utf8.RuneCountInString(value) > limit {
		problems = append(problems, fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
	return problems
}
