package ftp

import (
	"errors"

	"github.com/marmos91/ftpd/internal/netio"
)

// openDataChannel verifies the DTP was configured by a preceding
// PORT/EPRT/PASV/EPSV and establishes the data socket. On failure the DTP is
// reset and the 425 reply has already been sent.
func (s *Session) openDataChannel() bool {
	if !s.dtp.Configured() {
		s.dtp.Close()
		s.reply(StatusCannotOpenData, "Failed open data connection")
		return false
	}

	if err := s.dtp.Open(); err != nil {
		s.dtp.Close()
		s.reply(StatusCannotOpenData, "Failed open data connection")
		return false
	}

	return true
}

// replyTransferError closes the data channel and maps a mid-transfer
// failure: socket faults abort the transfer (426), anything else is a local
// processing error (451).
func (s *Session) replyTransferError(err error) {
	s.dtp.Close()

	var netErr *netio.NetError
	if errors.As(err, &netErr) {
		s.reply(StatusTransferAborted, "Data connection close transfer abort")
		return
	}
	s.reply(StatusLocalError, "Data connection close local error")
}
