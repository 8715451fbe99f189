package element

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ValidatePrimitive checks a lexical value against its FHIR primitive type.
// Unknown type codes are accepted. Errors wrap ErrInvalidValue.
func ValidatePrimitive(typeCode, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s value must not be empty", ErrInvalidValue, typeCode)
	}
	var err error
	switch typeCode {
	case "boolean":
		if value != "true" && value != "false" {
			err = fmt.Errorf("boolean must be 'true' or 'false', got %q", value)
		}
	case "integer":
		err = checkInt(value, -2147483648)
	case "unsignedInt":
		err = checkInt(value, 0)
	case "positiveInt":
		err = checkInt(value, 1)
	case "decimal":
		err = match(decimalRegex, "decimal", value)
	case "string":
		err = checkString(value)
	case "markdown":
		if !utf8.ValidString(value) {
			err = fmt.Errorf("markdown contains invalid UTF-8")
		}
	case "uri":
		if strings.ContainsAny(value, " \t\n\r") {
			err = fmt.Errorf("uri cannot contain whitespace")
		}
	case "url":
		err = match(urlRegex, "url", value)
	case "canonical":
		err = match(canonicalRegex, "canonical", value)
	case "code":
		err = match(codeRegex, "code", value)
	case "id":
		err = match(idRegex, "id", value)
	case "oid":
		err = match(oidRegex, "oid", value)
	case "uuid":
		err = match(uuidRegex, "uuid", value)
	case "base64Binary":
		if _, e := base64.StdEncoding.DecodeString(value); e != nil {
			err = fmt.Errorf("invalid base64 encoding: %v", e)
		}
	case "instant":
		err = match(instantRegex, "instant", value)
	case "date":
		err = match(dateRegex, "date", value)
	case "dateTime":
		err = match(dateTimeRegex, "dateTime", value)
	case "time":
		err = match(timeRegex, "time", value)
	case "xhtml":
		if !strings.HasPrefix(strings.TrimSpace(value), "<div") {
			err = fmt.Errorf("xhtml must start with <div> element")
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

func match(re *regexp.Regexp, typeCode, value string) error {
	if !re.MatchString(value) {
		return fmt.Errorf("invalid %s format: %s", typeCode, value)
	}
	return nil
}

// checkInt validates a 32-bit integer with a lower bound.
func checkInt(value string, minVal int64) error {
	i, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return fmt.Errorf("value must be a 32-bit integer, got %q", value)
	}
	if i < minVal {
		return fmt.Errorf("value %d below minimum %d", i, minVal)
	}
	return nil
}

func checkString(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("string contains invalid UTF-8")
	}
	if s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t' {
		return fmt.Errorf("string cannot have leading or trailing whitespace")
	}
	return nil
}

var (
	decimalRegex   = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)
	urlRegex       = regexp.MustCompile(`^\S+$`)
	canonicalRegex = regexp.MustCompile(`^\S+(\|\S+)?$`)
	codeRegex      = regexp.MustCompile(`^\S+(\s\S+)*$`)
	idRegex        = regexp.MustCompile(`^[A-Za-z0-9\-.]{1,64}$`)
	oidRegex       = regexp.MustCompile(`^urn:oid:[012](\.(0|[1-9]\d*))+$`)
	uuidRegex      = regexp.MustCompile(`^urn:uuid:[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	instantRegex   = regexp.MustCompile(`^(\d{4})-(0[1-9]|1[012])-(0[1-9]|[12]\d|3[01])T([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?(Z|[+-]((0\d|1[0-3]):[0-5]\d|14:00))$`)
	dateRegex      = regexp.MustCompile(`^(\d{4})(-(0[1-9]|1[012])(-(0[1-9]|[12]\d|3[01]))?)?$`)
	dateTimeRegex  = regexp.MustCompile(`^(\d{4})(-(0[1-9]|1[012])(-(0[1-9]|[12]\d|3[01])(T([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?(Z|[+-]((0\d|1[0-3]):[0-5]\d|14:00))?)?)?)?$`)
	timeRegex      = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d:([0-5]\d|60)(\.\d+)?$`)
)
