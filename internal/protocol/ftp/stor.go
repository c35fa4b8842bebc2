package ftp

import "os"

// handleSTOR receives a file from the client and writes it verbatim,
// truncating any existing file at the resolved path. Uploads are not
// line-ending translated regardless of the transfer mode.
func (s *Session) handleSTOR(arg string) {
	nativePath := s.resolvePath(arg)

	file, err := os.Create(nativePath)
	if err != nil {
		s.reply(StatusLocalError, "Failed to create file")
		return
	}
	defer file.Close()

	if !s.openDataChannel() {
		return
	}

	s.reply(StatusFileStatusOK, "Open data connection for file transfer")

	if err := s.dtp.ReadInto(file); err != nil {
		s.replyTransferError(err)
		return
	}

	if err := file.Sync(); err != nil {
		s.replyTransferError(err)
		return
	}

	s.dtp.Close()
	s.reply(StatusDataClosedOK, "Data connection close file sent OK")
}
