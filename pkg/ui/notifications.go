package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name="+config.AppName, title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier(%q).Show($toast)
	`, title, message, config.AppName)

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier sends desktop notifications. It never writes to the terminal,
// so it is safe to use while the interactive shell owns the screen.
type Notifier struct {
	sender NotificationSender
	logger logger.Logger
}

// NewNotifier creates a Notifier for the current platform. On unsupported
// platforms notifications are dropped.
func NewNotifier(log logger.Logger) *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return NewNotifierWithSender(sender, log)
}

// NewNotifierWithSender creates a Notifier with an explicit sender
func NewNotifierWithSender(sender NotificationSender, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Notifier{sender: sender, logger: log}
}

// SendSuccess sends a notification about a finished download
func (n *Notifier) SendSuccess(title, message string) {
	n.send(title, message)
}

// SendError sends a notification about a failed download
func (n *Notifier) SendError(title, message string) {
	n.send(title, message)
}

func (n *Notifier) send(title, message string) {
	if n.sender == nil {
		return
	}
	// Notifications are best effort; a missing notify-send is common
	if err := n.sender.Send(title, message); err != nil {
		n.logger.WithError(err).WithField("title", title).Debug("Desktop notification failed")
	}
}
