package ftp

import (
	"fmt"
	"strings"

	"github.com/marmos91/ftpd/internal/netio"
)

// Passive-mode ports are allocated by walking downward from the top of the
// ephemeral range; the first port that binds wins. Races with other sessions
// simply move the walk to the next port.
const (
	usablePortMin = 1024
	usablePortMax = 65535
)

// allocatePassivePort walks the port space until a listener binds. Returns
// the bound port, or false when the whole range is exhausted.
func (s *Session) allocatePassivePort(family netio.Family) (uint16, bool) {
	for port := usablePortMax; port >= usablePortMin; port-- {
		if err := s.dtp.SetupPassive(uint16(port), family); err == nil {
			return uint16(port), true
		}
	}
	return 0, false
}

// handlePASV opens an IPv4 passive listener and advertises it as
// (h1,h2,h3,h4,p1,p2) built from the control socket's local address.
func (s *Session) handlePASV(string) {
	if s.epsvExclusive {
		s.reply(StatusFileUnavailable, "Can only accept EPSV")
		return
	}

	port, ok := s.allocatePassivePort(netio.FamilyIPv4)
	if !ok {
		s.reply(StatusCannotOpenData, "Failed open data connection")
		return
	}

	octets := strings.Split(s.control.LocalIP(), ".")
	if len(octets) != 4 {
		octets = []string{"0", "0", "0", "0"}
	}

	s.reply(StatusPassiveMode, fmt.Sprintf("Entering passive mode (%s,%d,%d)",
		strings.Join(octets, ","), port>>8, port&0xFF))
}

// handleEPSV opens a passive listener for the requested family and
// advertises only the port, RFC 2428 style. "EPSV ALL" permanently locks
// the session to extended passive mode: PORT, EPRT and PASV are refused from
// then on.
func (s *Session) handleEPSV(arg string) {
	var family netio.Family
	switch arg {
	case "":
		s.reply(StatusBadArguments, "EPSV command args not recognized")
		return
	case "ALL":
		s.epsvExclusive = true
		s.reply(StatusExtendedPassive, "EPSV ALL ok")
		return
	case "1":
		family = netio.FamilyIPv4
	case "2":
		family = netio.FamilyIPv6
	default:
		s.reply(StatusProtoNotSupported, "Protocol not supported. use (1,2)")
		return
	}

	port, ok := s.allocatePassivePort(family)
	if !ok {
		s.reply(StatusCannotOpenData, "Failed open data connection")
		return
	}

	s.reply(StatusExtendedPassive, fmt.Sprintf("Entering extended passive mode (|||%d|)", port))
}
