package ftp

import (
	"os"

	"github.com/marmos91/ftpd/internal/pathutil"
)

// handleRETR streams a regular file to the client through the DTP in the
// current transfer mode.
func (s *Session) handleRETR(arg string) {
	nativePath := s.resolvePath(arg)

	if !pathutil.IsRegularFile(nativePath) {
		s.reply(StatusFileUnavailable, "Failed to open file")
		return
	}

	file, err := os.Open(nativePath)
	if err != nil {
		s.reply(StatusFileUnavailable, "Failed to open file")
		return
	}
	defer file.Close()

	if !s.openDataChannel() {
		return
	}

	s.reply(StatusFileStatusOK, "Open data connection for file transfer")

	if err := s.dtp.WriteFrom(file); err != nil {
		s.replyTransferError(err)
		return
	}

	s.dtp.Close()
	s.reply(StatusDataClosedOK, "Data connection close file sent OK")
}
