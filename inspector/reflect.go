// Package inspector renders the selected agent's components.
package inspector

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Widget selects how a field is drawn.
type Widget int

const (
	WidgetAuto Widget = iota
	WidgetLabel
	WidgetBar
	WidgetAngle
	WidgetSkip
)

// Field is one exported component field with its rendering hints.
type Field struct {
	Name    string
	Value   any
	Widget  Widget
	Options map[string]string
}

// Text formats the field value, honouring a fmt option.
func (f Field) Text() string {
	return FormatValue(f.Value, f.Options["fmt"])
}

// ParseTag parses an inspect struct tag of the form
// `inspect:"widget[,option:value...]"`, e.g. `inspect:"bar,max:200"`.
func ParseTag(tag string) (Widget, map[string]string) {
	options := make(map[string]string)
	if tag == "" {
		return WidgetAuto, options
	}

	name, rest, _ := strings.Cut(tag, ",")
	widget := WidgetAuto
	switch strings.TrimSpace(name) {
	case "label":
		widget = WidgetLabel
	case "bar":
		widget = WidgetBar
	case "angle":
		widget = WidgetAngle
	case "skip":
		widget = WidgetSkip
	}

	if rest != "" {
		for _, part := range strings.Split(rest, ",") {
			k, v, ok := strings.Cut(strings.TrimSpace(part), ":")
			if ok {
				options[k] = v
			}
		}
	}
	return widget, options
}

// ExtractFields returns the exported fields of a struct or struct pointer.
// Fields tagged skip are dropped; untagged fields are drawn as labels.
func ExtractFields(component any) []Field {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	fields := make([]Field, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		widget, options := ParseTag(sf.Tag.Get("inspect"))
		if widget == WidgetSkip {
			continue
		}
		if widget == WidgetAuto {
			widget = WidgetLabel
		}
		fields = append(fields, Field{
			Name:    sf.Name,
			Value:   v.Field(i).Interface(),
			Widget:  widget,
			Options: options,
		})
	}
	return fields
}

// FormatValue formats a value with fmtStr, or with two decimals for floats.
func FormatValue(value any, fmtStr string) string {
	if fmtStr != "" {
		return fmt.Sprintf(fmtStr, value)
	}
	switch v := value.(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'f', 2, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	default:
		return fmt.Sprint(value)
	}
}

// Max returns the max option, defaulting to 1.
func Max(options map[string]string) float32 {
	if s, ok := options["max"]; ok {
		if v, err := strconv.ParseFloat(s, 32); err == nil && v > 0 {
			return float32(v)
		}
	}
	return 1
}

// FloatValue converts numeric field values to float32.
func FloatValue(value any) (float32, bool) {
	switch v := value.(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	case int32:
		return float32(v), true
	case int64:
		return float32(v), true
	case uint32:
		return float32(v), true
	default:
		return 0, false
	}
}
