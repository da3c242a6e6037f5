package listing

import (
	"strings"
	"unicode/utf8"

	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/similarity"
)

// Field limits
const (
	MinTitleLength       = 6
	MinDescriptionLength = 40
	MinRejectReason      = 3
)

// OverrideThreshold is the duplicate score above which submission needs an
// explicit override. A score of exactly 75 does not.
const OverrideThreshold = 75

// Duplicate policy messages shown to agents.
const (
	msgDeveloperCollision   = "remove developer name — branding collision with a verified project"
	msgExactProjectName     = "cannot reuse exact verified project name"
	msgConfirmationRequired = "duplicate warning requires confirmation"
)

type requirement struct {
	label   string // checklist name
	message string // submission message
	ok      func(l *Listing) bool
}

func textLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

// submitRequirements are checked in order; the first failure is reported
var submitRequirements = []requirement{
	{"title", "title must be at least 6 characters", func(l *Listing) bool { return textLen(l.Title) >= MinTitleLength }},
	{"property type", "property type is required", func(l *Listing) bool { return present(l.PropertyType) }},
	{"intent", "intent must be sale or rent", func(l *Listing) bool { return l.Intent.Valid() }},
	{"price", "price must be greater than 0", func(l *Listing) bool { return l.Price > 0 }},
	{"construction status", "construction status is required", func(l *Listing) bool { return present(l.ConstructionStatus) }},
	{"description", "short description must be at least 40 characters", func(l *Listing) bool { return textLen(l.ShortDescription) >= MinDescriptionLength }},
	{"city", "city is required", func(l *Listing) bool { return present(l.City) }},
	{"community", "community is required", func(l *Listing) bool { return present(l.Community) }},
	{"coordinates", "latitude and longitude are required", func(l *Listing) bool { return l.HasCoordinates() }},
	{"cover image", "a cover image is required", func(l *Listing) bool { return l.Cover() != nil }},
	{"authorization to market", "you must confirm you are authorized to market this property", func(l *Listing) bool { return l.AuthorizedToMarket }},
}

// approvalRequirements is the moderator checklist, recomputed from the stored listing
var approvalRequirements = []requirement{
	{"title", "", func(l *Listing) bool { return present(l.Title) }},
	{"property type", "", func(l *Listing) bool { return present(l.PropertyType) }},
	{"intent", "", func(l *Listing) bool { return l.Intent.Valid() }},
	{"price", "", func(l *Listing) bool { return l.Price > 0 }},
	{"construction status", "", func(l *Listing) bool { return present(l.ConstructionStatus) }},
	{"description of at least 40 characters", "", func(l *Listing) bool { return textLen(l.ShortDescription) >= MinDescriptionLength }},
	{"city", "", func(l *Listing) bool { return present(l.City) }},
	{"community", "", func(l *Listing) bool { return present(l.Community) }},
	{"coordinates", "", func(l *Listing) bool { return l.HasCoordinates() }},
	{"cover image", "", func(l *Listing) bool { return l.Cover() != nil }},
	{"authorization to market", "", func(l *Listing) bool { return l.AuthorizedToMarket }},
}

// validateForSubmit returns the first unmet submission requirement.
func validateForSubmit(l *Listing) error {
	for _, r := range submitRequirements {
		if !r.ok(l) {
			return errors.Newf("%s", r.message).
				Category(errors.CategoryValidation).
				Component(componentName).
				Context("field", r.label).
				Build()
		}
	}
	return nil
}

// Checklist returns the labels of every unmet approval requirement.
func Checklist(l *Listing) []string {
	var missing []string
	for _, r := range approvalRequirements {
		if !r.ok(l) {
			missing = append(missing, r.label)
		}
	}
	return missing
}

func validateForApproval(l *Listing) error {
	missing := Checklist(l)
	if len(missing) == 0 {
		return nil
	}
	return errors.Newf("approval checklist incomplete, missing: %s", strings.Join(missing, ", ")).
		Category(errors.CategoryValidation).
		Component(componentName).
		Context("missing", missing).
		Build()
}

// requiresOverride reports whether the stored annotation is a strong duplicate signal.
func requiresOverride(l *Listing) bool {
	return l.DuplicateScore != nil &&
		*l.DuplicateScore > OverrideThreshold &&
		l.DuplicateMatchedProjectID != ""
}

// applyDuplicatePolicy enforces the branding rules for a strong duplicate and
// decides whether the submission is an override. The override flag is only
// kept on the listing when the override path is taken.
func applyDuplicatePolicy(l *Listing, confirmed bool) (overridden bool, err error) {
	if !requiresOverride(l) {
		l.DuplicateOverrideConfirmed = false
		return false, nil
	}

	if present(l.DeveloperName) {
		return false, errors.Validationf(componentName, msgDeveloperCollision)
	}

	matched := similarity.NormalizeName(l.DuplicateMatchedProjectName)
	if matched != "" && similarity.NormalizeName(l.Title) == matched {
		return false, errors.Validationf(componentName, msgExactProjectName)
	}

	if !confirmed && !l.DuplicateOverrideConfirmed {
		return false, errors.Validationf(componentName, msgConfirmationRequired)
	}

	l.DuplicateOverrideConfirmed = true
	return true, nil
}

func validateRejectReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < MinRejectReason {
		return "", errors.Validationf(componentName, "rejection reason must be at least %d characters", MinRejectReason)
	}
	return reason, nil
}
