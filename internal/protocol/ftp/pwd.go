package ftp

// handlePWD reports the virtual working directory, rooted at "/".
func (s *Session) handlePWD(string) {
	s.reply(StatusPathCreated, "\"/"+s.userWorkingDir+"\" is the current directory")
}
