package args

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/koustreak/dbagent/internal/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// Validate decodes payload into the typed arguments of action.
//
// Decoding is strict: unknown fields, mistyped values and trailing data are
// rejected, defaults are applied, then struct tags are checked. Any failure
// is an ErrKindInvalidInput error; an unknown action is ErrKindUnknownAction.
func Validate(action Action, payload []byte) (Args, error) {
	var a Args
	switch action {
	case ListSchema, GetOntology:
		a = &SchemaArgs{}
	case UpdateMetadata:
		a = &MetadataArgs{}
	case ExecuteQuery:
		a = &QueryArgs{}
	case ViewCurrentOntology:
		a = &OntologyArgs{}
	default:
		return nil, errs.Newf(errs.ErrKindUnknownAction, "unknown action %q", action)
	}

	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "%s: payload is empty", action)
	}
	if err := decodeStrict(payload, a); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, string(action)+": invalid payload", err)
	}
	if err := validate.Struct(a); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, string(action)+": invalid payload", describe(err))
	}
	return a, nil
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		for _, t := range backendTypes {
			field = strings.ReplaceAll(field, "conn."+strings.ToLower(string(t))+".", "conn.")
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
