// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package helpers

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/stoewer/go-strcase"
)

func columnNameFromFieldName(fieldName string) string {
	return strcase.SnakeCase(fieldName)
}

// GetDBColumnName returns the column name for the field: the `db` tag
// if present, the snake-cased field name otherwise.
func GetDBColumnName(t reflect.Type, fieldName string) (string, error) {
	f, ok := t.FieldByName(fieldName)
	if !ok {
		return "", fmt.Errorf("field '%s' is not found", fieldName)
	}
	value, found := f.Tag.Lookup("db")
	if !found {
		return columnNameFromFieldName(fieldName), nil
	}
	idx := strings.Index(value, ",")
	if idx == -1 {
		return value, nil
	}
	return value[0:idx], nil
}

// GetValuesAndColumns decomposes the row structure into value
// pointers and the matching column names.
func GetValuesAndColumns(obj interface{}, shouldSkip func(fieldName string, value interface{}) bool) ([]interface{}, []string, error) {
	e := reflect.Indirect(reflect.ValueOf(obj))
	t := e.Type()

	var columns []string
	var values []interface{}
	for i := 0; i < e.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			// not exported
			continue
		}
		if shouldSkip != nil && shouldSkip(f.Name, e.Field(i).Interface()) {
			continue
		}

		columnName, err := GetDBColumnName(t, f.Name)
		if err != nil {
			return nil, nil, err
		}
		if columnName == "-" {
			continue
		}

		v := e.Field(i)
		if v.Kind() == reflect.Struct {
			// Structures are only storable as a whole: either the
			// `sql` package knows them (time.Time) or they implement
			// driver.Valuer themselves.
			_, isTime := v.Interface().(time.Time)
			isValuer := f.Type.Implements(reflect.ValueOf((*driver.Valuer)(nil)).Type().Elem())
			if !isTime && !isValuer {
				return nil, nil, fmt.Errorf("field '%s' is a structure without SQL support", f.Name)
			}
		}

		columns = append(columns, columnName)
		if v.CanAddr() {
			v = v.Addr()
		}
		values = append(values, v.Interface())
	}

	return values, columns, nil
}
