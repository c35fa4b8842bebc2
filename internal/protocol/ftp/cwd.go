package ftp

import "github.com/marmos91/ftpd/internal/pathutil"

// handleCWD changes the virtual working directory when the resolved host
// path is an existing directory. Normalization keeps the candidate inside
// the native home, so ".." chains can never escape the virtual root.
func (s *Session) handleCWD(arg string) {
	var candidate string
	if arg != "" {
		candidate = s.virtualDir(arg)
	}
	s.changeWorkingDir(candidate)
}

// handleCDUP is CWD to the parent directory.
func (s *Session) handleCDUP(string) {
	s.changeWorkingDir(pathutil.Normalize(s.userWorkingDir + "/.."))
}

func (s *Session) changeWorkingDir(candidate string) {
	if pathutil.IsDirectory("/" + s.userNativeHome + "/" + candidate) {
		s.userWorkingDir = candidate
		s.reply(StatusActionCompleted, "Directory change okay")
		return
	}
	s.reply(StatusFileUnavailable, "Failed to change directory")
}
