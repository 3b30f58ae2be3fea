package utils

import (
	"reflect"
	"strings"
)

// NormalizeDTO trims string fields on a pointer-to-struct DTO.
// Non-nil *string fields are trimmed too. Numbers are left untouched:
// quantities and rates keep their full precision until the totals are computed.
func NormalizeDTO(dto any) {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	s := v.Elem()
	if s.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if !f.CanSet() {
			continue
		}
		if f.Kind() == reflect.Ptr {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		if f.Kind() == reflect.String {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}
