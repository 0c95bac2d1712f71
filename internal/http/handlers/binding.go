package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// deserializePrefix starts every 400 body produced by a failed decode.
const deserializePrefix = "Json deserialize error: "

// strictJSON is a gin binding that rejects unknown fields and trailing data,
// then runs the registered struct validator.
type strictJSON struct{}

var _ binding.BindingBody = strictJSON{}

func (strictJSON) Name() string { return "strict-json" }

func (b strictJSON) Bind(req *http.Request, obj any) error {
	if req == nil || req.Body == nil {
		return errors.New("invalid request")
	}
	return b.decode(req.Body, obj)
}

func (b strictJSON) BindBody(body []byte, obj any) error {
	return b.decode(bytes.NewReader(body), obj)
}

func (strictJSON) decode(r io.Reader, obj any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("EOF while parsing a value")
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing characters")
	}
	if binding.Validator == nil {
		return nil
	}
	return binding.Validator.ValidateStruct(obj)
}

// decodeMessage renders a bind error as the plain-text 400 body.
// Validation failures on `required` are reported by JSON field name.
func decodeMessage(obj any, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		name := jsonFieldName(obj, fe.StructField())
		if fe.Tag() == "required" {
			return fmt.Sprintf("%smissing field `%s`", deserializePrefix, name)
		}
		return fmt.Sprintf("%sinvalid value for field `%s`", deserializePrefix, name)
	}
	return deserializePrefix + err.Error()
}

func jsonFieldName(obj any, structField string) string {
	t := reflect.TypeOf(obj)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return structField
	}
	f, ok := t.FieldByName(structField)
	if !ok {
		return structField
	}
	if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
		return tag
	}
	return structField
}
