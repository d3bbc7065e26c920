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
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type Dummy struct {
	ID         uint64 `db:"id,pk"`
	SetVersion string
	TSInsert   time.Time `db:"ts_insert"`
	Skipped    string    `db:"-"`
}

func TestExtractingColumnName(t *testing.T) {
	column, err := GetDBColumnName(reflect.TypeOf(Dummy{}), "ID")
	require.NoError(t, err)
	require.Equal(t, "id", column)

	column, err = GetDBColumnName(reflect.TypeOf(Dummy{}), "SetVersion")
	require.NoError(t, err)
	require.Equal(t, "set_version", column)

	_, err = GetDBColumnName(reflect.TypeOf(Dummy{}), "BlahBlah")
	require.Error(t, err)
}

func TestGetValuesAndColumns(t *testing.T) {
	d := &Dummy{
		ID:         42,
		SetVersion: "vangogh-v1",
		Skipped:    "never stored",
	}

	values, columns, err := GetValuesAndColumns(d, func(fieldName string, value any) bool {
		return fieldName == "TSInsert"
	})
	require.NoError(t, err)
	require.Len(t, values, len(columns))
	require.Equal(t, []string{"id", "set_version"}, columns)
	require.Equal(t, uint64(42), *values[0].(*uint64))
	require.Equal(t, "vangogh-v1", *values[1].(*string))
}
