package ftp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/ftpd/internal/pathutil"
)

// handleLIST streams a long-format listing of the resolved path over the
// data channel. Directories list their entries (dot entries skipped), an
// existing non-directory lists itself, and a missing path produces an empty
// listing. The listing is fully buffered before the 150 reply so a slow
// directory never stalls between the preliminary and final replies.
func (s *Session) handleLIST(arg string) {
	listing := s.buildListing(s.resolvePath(arg))

	if !s.openDataChannel() {
		return
	}

	s.reply(StatusFileStatusOK, "Here come the directory listing")

	if err := s.dtp.WriteFrom(strings.NewReader(listing)); err != nil {
		s.replyTransferError(err)
		return
	}

	s.dtp.Close()
	s.reply(StatusDataClosedOK, "Directory listing sent OK")
}

func (s *Session) buildListing(nativePath string) string {
	var b strings.Builder

	entries, err := os.ReadDir(nativePath)
	if err == nil {
		for _, entry := range entries {
			info, statErr := os.Stat(filepath.Join(nativePath, entry.Name()))
			if statErr != nil {
				continue
			}
			b.WriteString(pathutil.LongListingLine(info, entry.Name()))
			b.WriteString("\r\n")
		}
		return b.String()
	}

	if info, statErr := os.Stat(nativePath); statErr == nil {
		b.WriteString(pathutil.LongListingLine(info, filepath.Base(nativePath)))
		b.WriteString("\r\n")
	}
	return b.String()
}
