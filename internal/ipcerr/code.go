/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package ipcerr provides the coded, hierarchical error type shared by every
// layer of the IPC fabric: transport, framer, security and router all return
// (or translate into) a CodeError-tagged Error so the wire error.code field
// never drifts from a fixed taxonomy.
package ipcerr

// CodeError is a stable, wire-visible error classification string: the
// exact value the response frame puts into `error.code`, so there is no
// translation table between the in-process code and the bytes a client
// sees.
type CodeError string

const (
	ConnectionFailed   CodeError = "IPC_CONNECTION_FAILED"
	ClientDisconnected CodeError = "IPC_CLIENT_DISCONNECTED"
	AuthRequired       CodeError = "IPC_AUTH_REQUIRED"
	AuthFailed         CodeError = "IPC_AUTH_FAILED"
	InvalidRequest     CodeError = "IPC_INVALID_REQUEST"
	MissingParameter   CodeError = "IPC_MISSING_PARAMETER"
	InvalidParameter   CodeError = "IPC_INVALID_PARAMETER"
	RequestTimeout     CodeError = "IPC_REQUEST_TIMEOUT"
	RateLimited        CodeError = "RATE_LIMITED"
	ResourceNotFound   CodeError = "RESOURCE_NOT_FOUND"
	InsufficientPerms  CodeError = "INSUFFICIENT_PERMISSIONS"
	InternalError      CodeError = "INTERNAL_ERROR"
	ServiceUnavailable CodeError = "SERVICE_UNAVAILABLE"
)

// defaultMessage returns the canonical human-readable text for a code when
// the caller did not supply one of its own.
func defaultMessage(c CodeError) string {
	switch c {
	case ConnectionFailed:
		return "connection failed"
	case ClientDisconnected:
		return "client disconnected"
	case AuthRequired:
		return "authentication required"
	case AuthFailed:
		return "authentication failed"
	case InvalidRequest:
		return "invalid request"
	case MissingParameter:
		return "missing required parameter"
	case InvalidParameter:
		return "invalid parameter"
	case RequestTimeout:
		return "request timed out"
	case RateLimited:
		return "rate limit exceeded"
	case ResourceNotFound:
		return "resource not found"
	case InsufficientPerms:
		return "insufficient permissions"
	case ServiceUnavailable:
		return "service unavailable"
	default:
		return "internal error"
	}
}
