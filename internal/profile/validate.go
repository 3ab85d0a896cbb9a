package profile

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/sells-group/property-profile/internal/model"
)

// ValidationError reports the first invalid field of a query.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "profile: invalid query: " + e.Message
}

type validatorSvc struct {
	v     *validator.Validate
	trans ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

// queryValidator returns the validator singleton. Field names in messages
// use the json tag names, which are also the HTTP query parameter names.
func queryValidator() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = entranslations.RegisterDefaultTranslations(v, trans)
		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")

		vSvc = &validatorSvc{v: v, trans: trans}
	})
	return vSvc
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// Normalize trims the address, lowercases the language tag, fills the
// default language and validates the result. A zero radius is invalid:
// callers apply model.DefaultRadius when the parameter is absent.
func Normalize(q model.AddressQuery) (model.AddressQuery, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.Language = strings.ToLower(strings.TrimSpace(q.Language))
	if q.Language == "" {
		q.Language = model.DefaultLanguage
	}

	svc := queryValidator()
	if err := svc.v.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return q, &ValidationError{Field: verrs[0].Field(), Message: verrs[0].Translate(svc.trans)}
		}
		return q, &ValidationError{Message: err.Error()}
	}
	return q, nil
}
