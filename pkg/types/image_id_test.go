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

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		require.Equal(t, NewImageIDFromImage([]byte{1, 2, 3}), NewImageIDFromImage([]byte{1, 2, 3}))
		require.NotEqual(t, NewImageIDFromImage([]byte{1, 2, 3}), NewImageIDFromImage([]byte{1, 2, 4}))
	})

	t.Run("flag_value_roundtrip", func(t *testing.T) {
		imgID := NewImageIDFromImage([]byte("sample"))
		var parsed ImageID
		require.NoError(t, parsed.Set(imgID.String()))
		require.Equal(t, imgID, parsed)
	})

	t.Run("flag_value_rejects_wrong_length", func(t *testing.T) {
		var parsed ImageID
		require.Error(t, parsed.Set("0102"))
	})

	t.Run("is_zero", func(t *testing.T) {
		var imgID ImageID
		require.True(t, imgID.IsZero())
		require.False(t, NewImageIDFromImage(nil).IsZero())
	})
}
