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

//go:build linux

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// peerCredentialSource names the syscall this platform uses, attached to
// every credential read here so logs can tell high-confidence reads apart
// from the portable fallback.
const peerCredentialSource = "SO_PEERCRED"

// readPeerCredential extracts the kernel-verified credentials of the
// process on the other end of a Unix domain socket via SO_PEERCRED. This
// is only possible for connected AF_UNIX stream sockets.
func readPeerCredential(conn *net.UnixConn) PeerCredential {
	raw, err := conn.SyscallConn()
	if err != nil {
		return unknownPeerCredential()
	}

	var (
		ucred *unix.Ucred
		cerr  error
	)
	ctrlErr := raw.Control(func(fd uintptr) {
		ucred, cerr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctrlErr != nil || cerr != nil || ucred == nil {
		return unknownPeerCredential()
	}

	return PeerCredential{
		PID:        ucred.Pid,
		UID:        int32(ucred.Uid),
		GID:        int32(ucred.Gid),
		Source:     peerCredentialSource,
		Confidence: ConfidenceHigh,
	}
}
