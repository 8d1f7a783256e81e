package submission

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxURLLength = 2083

// articleURLPattern accepts a dotted hostname with a 2-6 letter TLD,
// localhost, or a dotted-quad IP, then an optional port and path/query.
var articleURLPattern = regexp.MustCompile(
	`(?i)^https?://` +
		`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|localhost|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`,
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NormalizeURL trims raw, defaults the scheme to https, and checks the result
// against articleURLPattern. The returned URL is always absolute http(s).
func NormalizeURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", errors.New("field required")
	}
	if len(u) > maxURLLength {
		return "", errors.New("URL must be at most 2083 characters")
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		u = "https://" + u
	}
	if !articleURLPattern.MatchString(u) {
		return "", errors.New("invalid URL format")
	}
	if _, err := url.ParseRequestURI(u); err != nil {
		return "", errors.New("invalid URL format")
	}
	return u, nil
}

// NormalizeEmail trims raw and checks standard email syntax.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if err := validate.Var(email, "required,email"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
			return "", errors.New("field required")
		}
		return "", errors.New("value is not a valid email address")
	}
	return email, nil
}

// Validate checks both fields and returns the normalized payload without a
// session ID. Every invalid field is reported, not only the first.
func Validate(sub Submission) (Payload, error) {
	var fields []FieldError
	email, err := NormalizeEmail(sub.Email)
	if err != nil {
		fields = append(fields, FieldError{Field: "email", Message: err.Error()})
	}
	articleURL, err := NormalizeURL(sub.ArticleURL)
	if err != nil {
		fields = append(fields, FieldError{Field: "article_url", Message: err.Error()})
	}
	if len(fields) > 0 {
		return Payload{}, &ValidationError{Fields: fields}
	}
	return Payload{Email: email, ArticleURL: articleURL}, nil
}
