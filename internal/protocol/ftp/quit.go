package ftp

// handleQUIT flags the loop to exit after the goodbye is flushed.
func (s *Session) handleQUIT(string) {
	s.quit = true
	s.reply(StatusServiceClosing, "Goodbye")
}
