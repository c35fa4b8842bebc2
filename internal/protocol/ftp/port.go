package ftp

import (
	"strconv"
	"strings"

	"github.com/marmos91/ftpd/internal/netio"
)

// handlePORT configures an active-mode data connection from the classic
// h1,h2,h3,h4,p1,p2 form: four IPv4 octets followed by the port split into
// high and low bytes.
func (s *Session) handlePORT(arg string) {
	if s.epsvExclusive {
		s.reply(StatusFileUnavailable, "Can only accept EPSV")
		return
	}

	fields := strings.Split(arg, ",")
	if arg == "" || len(fields) != 6 {
		s.reply(StatusBadArguments, "Cannot recognize IP address and port number")
		return
	}

	octets := make([]uint8, 6)
	for i, field := range fields {
		v, err := strconv.ParseUint(field, 10, 8)
		if err != nil {
			s.reply(StatusBadArguments, "Cannot recognize IP address and port number")
			return
		}
		octets[i] = uint8(v)
	}

	receiverIP := strings.Join(fields[:4], ".")
	port := uint16(octets[4])<<8 | uint16(octets[5])

	s.dtp.SetupActive(receiverIP, port, netio.FamilyIPv4)
	s.reply(StatusCommandOK, "PORT Command successful. Consider using PASV")
}
