package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide writes step-by-step instructions for copying the session
// cookies out of a browser
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "🍪 INSTAGRAM SESSION COOKIES")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Public posts work without logging in. Instagram sometimes answers")
	fmt.Fprintln(w, "anonymous requests with a login page instead of the post; a stored")
	fmt.Fprintln(w, "session avoids that.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Log in at https://www.instagram.com in your browser")
	fmt.Fprintln(w, "2. Open Developer Tools (F12, or Cmd+Option+I on Mac)")
	fmt.Fprintln(w, "3. Chrome/Edge: Application tab → Cookies → https://www.instagram.com")
	fmt.Fprintln(w, "   Firefox: Storage tab → Cookies → https://www.instagram.com")
	fmt.Fprintln(w, "4. Copy the values of:")
	fmt.Fprintln(w, "     sessionid   long string containing %3A")
	fmt.Fprintln(w, "     csrftoken   32 characters")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  These cookies give full access to your account. Never share them.")
	fmt.Fprintln(w, "   They are stored in the system keyring or an encrypted file.")
	fmt.Fprintln(w, rule)
}

// WriteQuickGuide writes a one-line reminder for experienced users
func WriteQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "🍪 F12 → Application/Storage → Cookies → instagram.com: copy sessionid and csrftoken")
}
