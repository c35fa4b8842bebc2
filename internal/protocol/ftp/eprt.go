package ftp

import (
	"strconv"
	"strings"

	"github.com/marmos91/ftpd/internal/netio"
)

// handleEPRT configures an active-mode data connection from the RFC 2428
// |proto|addr|port| form. Protocol 1 is IPv4, 2 is IPv6.
func (s *Session) handleEPRT(arg string) {
	if s.epsvExclusive {
		s.reply(StatusFileUnavailable, "Can only accept EPSV")
		return
	}

	if len(arg) < 2 || arg[0] != '|' || arg[len(arg)-1] != '|' {
		s.reply(StatusBadArguments, "EPRT command args not recognized")
		return
	}

	fields := strings.Split(arg[1:len(arg)-1], "|")
	if len(fields) != 3 {
		s.reply(StatusBadArguments, "EPRT command args not recognized")
		return
	}

	var family netio.Family
	switch fields[0] {
	case "1":
		family = netio.FamilyIPv4
	case "2":
		family = netio.FamilyIPv6
	default:
		s.reply(StatusProtoNotSupported, "Protocol not supported. use (1,2)")
		return
	}

	port, err := strconv.ParseUint(fields[2], 10, 16)
	if err != nil {
		s.reply(StatusBadArguments, "EPRT command args not recognized")
		return
	}

	s.dtp.SetupActive(fields[1], uint16(port), family)
	s.reply(StatusCommandOK, "EPRT Command successful. Consider using EPSV")
}
