// File: internal/portal/types.go
package portal

import (
	"fmt"
	"reflect"
)

// Credentials is the combination of HTTP headers and query parameters needed
// to make an authenticated-equivalent request against the portal's search
// endpoint. A Credentials value is a snapshot: the watcher replaces it
// wholesale after each successful refresh, never merging field by field.
type Credentials struct {
	Headers     map[string]string
	QueryParams map[string]string
}

// Clone returns a deep copy, so a snapshot handed to a collaborator cannot
// be mutated out from under the watcher.
func (c Credentials) Clone() Credentials {
	out := Credentials{
		Headers:     make(map[string]string, len(c.Headers)),
		QueryParams: make(map[string]string, len(c.QueryParams)),
	}
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	for k, v := range c.QueryParams {
		out.QueryParams[k] = v
	}
	return out
}

// CourseTarget identifies the single course section being watched. Immutable
// for the duration of a watch session.
type CourseTarget struct {
	// FieldName is the full subject name used by the portal's fuzzy subject
	// search, e.g. "Computer Science".
	FieldName string
	// SubjectCode is the subject abbreviation, e.g. "CS".
	SubjectCode string
	// CourseNumber is the catalog number, e.g. "421".
	CourseNumber string
	// CourseIDs restricts results to matching reference numbers. Nil means
	// no filtering.
	CourseIDs []string
}

// NewCourseTarget builds a CourseTarget, normalizing courseIDs from any of
// the accepted container forms (see NormalizeCourseIDs).
func NewCourseTarget(fieldName, subjectCode, courseNumber string, courseIDs any) (CourseTarget, error) {
	ids, err := NormalizeCourseIDs(courseIDs)
	if err != nil {
		return CourseTarget{}, err
	}
	return CourseTarget{
		FieldName:    fieldName,
		SubjectCode:  subjectCode,
		CourseNumber: courseNumber,
		CourseIDs:    ids,
	}, nil
}

// Course returns the human-readable course identifier, e.g. "CS421".
func (t CourseTarget) Course() string {
	return t.SubjectCode + t.CourseNumber
}

// CourseStatus is one matched course section's availability, produced fresh
// on every fetch and never persisted across iterations.
type CourseStatus struct {
	ReferenceNumber string
	SeatsAvailable  int
}

// NormalizeCourseIDs converts a course-ID value into a canonical string
// slice. Accepted forms: nil (no filtering), a scalar (string or any
// integer), a slice or array of scalars, or a set expressed as map keys.
// Every container form holding the same ids yields the same filtering
// behavior.
func NormalizeCourseIDs(ids any) ([]string, error) {
	if ids == nil {
		return nil, nil
	}

	switch v := ids.(type) {
	case string:
		return []string{v}, nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, nil
	}

	rv := reflect.ValueOf(ids)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return []string{fmt.Sprint(ids)}, nil
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := normalizeScalar(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case reflect.Map:
		out := make([]string, 0, rv.Len())
		for _, key := range rv.MapKeys() {
			elem, err := normalizeScalar(key.Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported course id type %T", ids)
	}
}

func normalizeScalar(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("unsupported course id element type %T", v)
	}
}
