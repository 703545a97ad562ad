package validator

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// trans is the singleton English translator for validation errors.
	trans     ut.Translator
	transOnce sync.Once

	// standalone validates payloads on the client side, before any request
	// is sent. Gin's engine is configured separately by Setup.
	standalone     *govalidator.Validate
	standaloneOnce sync.Once
)

func translator() ut.Translator {
	transOnce.Do(func() {
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
	})
	return trans
}

// configure makes v report JSON field names and registers English messages.
func configure(v *govalidator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = en_translations.RegisterDefaultTranslations(v, translator())
}

// Setup registers the validator with English translations on Gin's binding engine.
// Call once during mock API startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		configure(v)
	}
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(translator())
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// Struct validates s using its `binding` tags, the same tags gin checks on
// the server. Returns nil when s is valid.
func Struct(s interface{}) map[string]string {
	standaloneOnce.Do(func() {
		standalone = govalidator.New(govalidator.WithRequiredStructEnabled())
		standalone.SetTagName("binding")
		configure(standalone)
	})
	if err := standalone.Struct(s); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// Slice validates every element of items with Struct and prefixes field
// names with the element index ("1.midterm").
func Slice[T any](items []T) map[string]string {
	var fields map[string]string
	for i := range items {
		errs := Struct(&items[i])
		for k, v := range errs {
			if fields == nil {
				fields = make(map[string]string)
			}
			fields[indexed(i, k)] = v
		}
	}
	return fields
}

func indexed(i int, field string) string {
	return strconv.Itoa(i) + "." + field
}
