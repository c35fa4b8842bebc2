package ftp

import (
	"github.com/marmos91/ftpd/internal/logger"
	"github.com/marmos91/ftpd/internal/pathutil"
	"github.com/marmos91/ftpd/pkg/store/accounts"
)

// handlePASS completes the login handshake: the username from the preceding
// USER and this password are checked against the account store. A match
// establishes the session's virtual root; a miss clears the username so the
// client must start over with USER.
func (s *Session) handlePASS(arg string) {
	if s.loggedIn {
		s.reply(StatusLoggedIn, "Already logged in")
		return
	}
	if s.username == "" {
		s.reply(StatusBadSequence, "Login with USER first")
		return
	}

	account, err := s.store.Authenticate(s.ctx, s.username, arg)
	if err != nil {
		if accounts.IsUnavailable(err) {
			logger.Warn("Account store unavailable: %v", err)
			s.reply(StatusNotLoggedIn, "Accounts file not found")
			return
		}

		s.loggedIn = false
		s.username = ""
		s.reply(StatusNotLoggedIn, "Login incorrect")
		return
	}

	s.loggedIn = true
	s.userNativeHome = pathutil.Normalize(account.HomeDir)
	s.userWorkingDir = ""
	logger.Info("User %s logged in from %s", account.Username, s.control.RemoteAddr())
	s.reply(StatusLoggedIn, "User logged in, proceed")
}
