package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// AssignTitle sets the display title of s, and for string enumerations its value
// list, from the id the schema was declared under.
//
// Rules, first match wins:
//   - string with an enumeration: Capitalize(id)+"Enum", wrapped as
//     ValuedEnum<...> when a member is not a bare identifier
//   - string: "String"
//   - boolean: "boolean"
//   - anything else: the title already carried by s, otherwise
//     Capitalize(id) with '-' and '_' removed
func AssignTitle(id string, raw *RawSchema, s *Schema) {
	switch s.Kind {
	case KindString:
		if raw != nil && len(raw.Enum) > 0 {
			assignEnum(id, raw.Enum, s)
			return
		}
		s.Title = "String"
	case KindBoolean:
		s.Title = "boolean"
	default:
		if s.Title == "" {
			s.Title = TypeTitle(id)
		}
	}
}

func assignEnum(id string, members []string, s *Schema) {
	name := Capitalize(id) + "Enum"
	values := FilterEnum(members)

	s.Title = name
	for _, v := range values {
		if !IsBareIdentifier(v) {
			s.Title = "ValuedEnum<" + name + ">"
			break
		}
	}
	s.EnumValues = values
	s.Enums = strings.Join(values, ", ")
}

// FilterEnum trims enumeration members and drops empty ones and the literal "null".
func FilterEnum(members []string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" || m == "null" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// TypeTitle derives a type name from an id.
func TypeTitle(id string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(Capitalize(id))
}

// IsBareIdentifier reports whether s can be used as a plain symbolic constant:
// it starts with a letter or '$' and continues with letters, digits, '_' or '$'.
func IsBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r), r == '$':
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return true
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToTitle(r)) + s[n:]
}

// Uncapitalize lower-cases the first rune of s.
func Uncapitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}
