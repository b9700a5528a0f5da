package api

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// collectionNameRe matches the restricted charset for collection names
var collectionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// Report violations under the wire field names, not Go struct names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError describes one violated field constraint
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateReview checks a submission payload and returns every violated
// constraint, not just the first. An empty slice means the payload is valid.
func ValidateReview(req *SubmitReviewRequest) []FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: "invalid payload"}}
	}

	issues := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return issues
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// ValidateListQuery checks getReviews parameters against the contract.
// The returned message is safe to hand to the client.
func ValidateListQuery(collection string, limit, offset int) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if limit < 1 || limit > 100 {
		return fmt.Errorf("Limit must be between 1 and 100")
	}
	if offset < 0 {
		return fmt.Errorf("Offset must be zero or greater")
	}
	return nil
}

// ValidateCollection checks the collection name charset and restricts
// queries to the known review collections.
func ValidateCollection(collection string) error {
	if !collectionNameRe.MatchString(collection) {
		return fmt.Errorf("Invalid collection name")
	}
	if !allowedCollections[collection] {
		return fmt.Errorf("Invalid collection name")
	}
	return nil
}
