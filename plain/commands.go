// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package plain

import (
	"code.hybscloud.com/zmtp"
)

const (
	nameHello    = "HELLO"
	nameWelcome  = "WELCOME"
	nameInitiate = "INITIATE"
	nameReady    = "READY"
	nameError    = "ERROR"
)

// welcomeTotalLen is the total command-frame length ("\x07WELCOME"), i.e.
// 1 name-length byte + 7 name bytes, as required verbatim by spec.md §4.3.
const welcomeTotalLen = 1 + len(nameWelcome)

// buildCommand assembles a COMMAND-flagged Message whose payload is
// [u8 nameLen][name][body], per spec.md §4.3's "lenByte, ASCII-name" rule.
func buildCommand(name string, body []byte) *zmtp.Message {
	data := make([]byte, 0, 1+len(name)+len(body))
	data = append(data, byte(len(name)))
	data = append(data, name...)
	data = append(data, body...)

	m := &zmtp.Message{}
	_ = m.InitSize(len(data))
	copy(m.Data(), data)
	m.SetFlags(zmtp.FlagCommand)
	return m
}

// parseCommand splits a command Message's payload back into its name and
// body. It returns ok=false only when the payload is empty or the
// name-length prefix overruns the payload; per-command body validation happens in
// the caller, which needs per-command error kinds.
func parseCommand(m *zmtp.Message) (name string, body []byte, ok bool) {
	data := m.Data()
	if len(data) < 1 {
		return "", nil, false
	}
	nameLen := int(data[0])
	if 1+nameLen > len(data) {
		return "", nil, false
	}
	name = string(data[1 : 1+nameLen])
	body = data[1+nameLen:]
	return name, body, true
}

// encodeHello builds the HELLO command body: u8 ulen, username, u8 plen,
// password.
func encodeHello(username, password string) []byte {
	body := make([]byte, 0, 2+len(username)+len(password))
	body = append(body, byte(len(username)))
	body = append(body, username...)
	body = append(body, byte(len(password)))
	body = append(body, password...)
	return body
}

// encodeError builds the ERROR command body: u8 rlen, reason.
func encodeError(reason string) []byte {
	body := make([]byte, 0, 1+len(reason))
	body = append(body, byte(len(reason)))
	body = append(body, reason...)
	return body
}

// decodeError parses an ERROR command body per spec.md §4.3's
// "data_size >= 7 and reason_len <= data_size - 7" rule. The caller passes
// the full command payload length (dataSize) because the check is defined
// in terms of the whole command, not just this body.
func decodeError(body []byte, dataSize int) (reason string, ok bool) {
	if dataSize < 7 {
		return "", false
	}
	if len(body) < 1 {
		return "", false
	}
	reasonLen := int(body[0])
	if reasonLen > dataSize-7 {
		return "", false
	}
	if 1+reasonLen > len(body) {
		return "", false
	}
	return string(body[1 : 1+reasonLen]), true
}
