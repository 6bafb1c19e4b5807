// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package zmtp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"code.hybscloud.com/zmtp"
)

func TestArena_BufferAdvanceBytes(t *testing.T) {
	a := zmtp.NewArena(16)
	require.Equal(t, 0, a.Len())
	require.Equal(t, 16, a.Cap())

	n := copy(a.Buffer(), []byte("hello"))
	a.AdvanceContent(n)
	require.Equal(t, "hello", string(a.Bytes()))
	require.False(t, a.IsShared(), "a fresh arena must not report shared")
}

func TestArena_CompactShiftsUnreadBytes(t *testing.T) {
	a := zmtp.NewArena(16)
	copy(a.Buffer(), []byte("abcdef"))
	a.AdvanceContent(6)
	a.Compact(4)
	require.Equal(t, "ef", string(a.Bytes()))
}

func TestArena_SharedWhileMessageOpen(t *testing.T) {
	a := zmtp.NewArena(16)
	copy(a.Buffer(), []byte("payload!"))
	a.AdvanceContent(8)

	var m zmtp.Message
	require.NoError(t, m.InitFromArena(0, 8, a))
	require.True(t, a.IsShared(), "arena must report shared once a message borrows it")
	require.True(t, m.Shared())
	require.Equal(t, "payload!", string(m.Data()))

	require.NoError(t, m.Close())
	require.False(t, a.IsShared(), "arena refcount must return to the owned sentinel after Close")
}

func TestArena_MultipleSharedMessages(t *testing.T) {
	a := zmtp.NewArena(16)
	copy(a.Buffer(), []byte("abcdefgh"))
	a.AdvanceContent(8)

	var m1, m2 zmtp.Message
	require.NoError(t, m1.InitFromArena(0, 4, a))
	require.NoError(t, m2.InitFromArena(4, 4, a))

	require.NoError(t, m1.Close())
	require.True(t, a.IsShared(), "arena must remain shared while m2 is still open")

	require.NoError(t, m2.Close())
	require.False(t, a.IsShared(), "arena must return to the owned sentinel once every message is closed")
}

func TestArena_InitFromArenaRejectsOutOfRangeWindow(t *testing.T) {
	a := zmtp.NewArena(8)
	a.AdvanceContent(4)
	var m zmtp.Message
	require.Error(t, m.InitFromArena(0, 9, a), "offset+n exceeds the backing buffer's capacity")
}

func TestArena_Reset(t *testing.T) {
	a := zmtp.NewArena(8)
	copy(a.Buffer(), []byte("1234"))
	a.AdvanceContent(4)
	a.Reset(32)
	require.Equal(t, 0, a.Len())
	require.Equal(t, 32, a.Cap())
	require.False(t, a.IsShared(), "a reset arena must not report shared")
}
