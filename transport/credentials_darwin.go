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

//go:build darwin

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

const peerCredentialSource = "LOCAL_PEERCRED"

// readPeerCredential extracts the kernel-verified credentials via
// LOCAL_PEERCRED (BSD/Darwin's equivalent of Linux's SO_PEERCRED). The
// Xucred struct carries UID and the process's group list but not its PID,
// so the returned credential has a zero PID and medium confidence.
func readPeerCredential(conn *net.UnixConn) PeerCredential {
	raw, err := conn.SyscallConn()
	if err != nil {
		return unknownPeerCredential()
	}

	var (
		xucred *unix.Xucred
		cerr   error
	)
	ctrlErr := raw.Control(func(fd uintptr) {
		xucred, cerr = unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
	})
	if ctrlErr != nil || cerr != nil || xucred == nil {
		return unknownPeerCredential()
	}

	gid := int32(0)
	if xucred.Ngroups > 0 {
		gid = int32(xucred.Groups[0])
	}

	return PeerCredential{
		UID:        int32(xucred.Uid),
		GID:        gid,
		Source:     peerCredentialSource,
		Confidence: ConfidenceMedium,
	}
}
