package template

import "fmt"

func GenericNotification(title, message, url string) string {
	body := fmt.Sprintf(`
		<html>
        <body>
            <h1>Chronos</h1>
            <h2>%s</h2>
            <p>%s</p>
        </body>
        </html>
		`, title, message)
	if url != "" {
		body = fmt.Sprintf(`
		<html>
        <body>
            <h1>Chronos</h1>
            <h2>%s</h2>
            <p>%s</p>
            <a href="%s">Open in Chronos</a>
        </body>
        </html>
		`, title, message, url)
	}
	return body
}

func EventInvite(eventTitle, inviteeName string) string {
	greeting := "Hi"
	if inviteeName != "" {
		greeting = fmt.Sprintf("Hi %s", inviteeName)
	}
	return fmt.Sprintf(`
		<html>
        <body>
            <h1>Chronos</h1>
            <p>%s,</p>
            <p>You've been invited to the event "%s".</p>
            <p>Sign in to Chronos to accept the invitation.</p>
        </body>
        </html>
		`, greeting, eventTitle)
}

func CalendarInvite(calendarTitle, inviteeName string) string {
	greeting := "Hi"
	if inviteeName != "" {
		greeting = fmt.Sprintf("Hi %s", inviteeName)
	}
	return fmt.Sprintf(`
		<html>
        <body>
            <h1>Chronos</h1>
            <p>%s,</p>
            <p>You're invited to join the calendar "%s".</p>
            <p>Sign in to Chronos to accept the invitation.</p>
        </body>
        </html>
		`, greeting, calendarTitle)
}
