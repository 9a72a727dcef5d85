// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package lattice

import (
	"fmt"
	"strings"
)

// FormatFrame formats a frame into a human-readable string
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp().Format("15:04:05.000")

	direction := "MORE"
	if f.IsLast() {
		direction = "LAST"
	}

	result := fmt.Sprintf("[%s] %s (0x%02X) seq=%d %s len=%d\n",
		timestamp, FormatCommand(f.Cmd()), f.Cmd(), f.Seq(), direction, f.Length())

	if f.IsError() {
		info := f.ErrorInfo()
		result += fmt.Sprintf("  error: %s (code %d)\n", info.Message, info.Code)
	} else if len(f.Payload()) > 0 {
		result += fmt.Sprintf("  payload: %s\n", formatHexBytes(f.Payload()))
	}

	return result
}

// FormatCommand returns the human-readable name for a command byte
func FormatCommand(cmd uint8) string {
	switch cmd {
	case CmdLogin:
		return "LOGIN"
	case CmdLogout:
		return "LOGOUT"
	case CmdReset:
		return "RESET"
	case CmdInfo:
		return "INFO"
	case CmdVers:
		return "VERS"
	case CmdErr:
		return "ERR"
	case CmdAck:
		return "ACK"
	case CmdPing:
		return "PING"
	case CmdFlip:
		return "FLIP"
	case CmdFrame:
		return "FRAME"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", cmd)
	}
}

// FormatErrorCode returns "name (code N)" for an error code
func FormatErrorCode(code ErrorCode) string {
	return fmt.Sprintf("%s (code %d)", code.String(), uint8(code))
}

// formatHexBytes renders a byte slice as space-separated hex, truncated
// past 16 bytes
func formatHexBytes(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i == 16 {
			fmt.Fprintf(&sb, "... (%d bytes)", len(data))
			break
		}
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
