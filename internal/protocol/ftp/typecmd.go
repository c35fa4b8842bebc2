package ftp

// handleTYPE switches the transfer mode between ASCII and BINARY. Other
// representation types are not implemented.
func (s *Session) handleTYPE(arg string) {
	switch arg {
	case "":
		s.reply(StatusBadArguments, "Cannot recognize code type")
	case "a", "A":
		s.dtp.SetMode(ModeASCII)
		s.reply(StatusCommandOK, "Switch to ASCII mode")
	case "i", "I":
		s.dtp.SetMode(ModeBinary)
		s.reply(StatusCommandOK, "Switch to BINARY mode")
	default:
		s.reply(StatusBadParameter, "Type "+arg+" not implemented")
	}
}
