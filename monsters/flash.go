package monsters

import (
	"fmt"
	"net/http"
)

// flash stores a message that will be shown on the next page that is rendered for this client.
func (c *Controller) flash(w http.ResponseWriter, r *http.Request, msg string) {
	if c.store == nil {
		return
	}
	// An invalid cookie still results in a new, usable session
	session, err := c.store.Get(r, flashSession)
	if session == nil {
		c.logger.WarnContext(r.Context(), "Could not open flash session", "error", err)
		return
	}
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		c.logger.WarnContext(r.Context(), "Could not save flash message", "error", err)
	}
}

// flashes returns and clears all pending flash messages.
func (c *Controller) flashes(w http.ResponseWriter, r *http.Request) []string {
	if c.store == nil {
		return nil
	}
	session, err := c.store.Get(r, flashSession)
	if session == nil {
		c.logger.WarnContext(r.Context(), "Could not open flash session", "error", err)
		return nil
	}
	pending := session.Flashes()
	if len(pending) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		c.logger.WarnContext(r.Context(), "Could not clear flash messages", "error", err)
	}
	messages := make([]string, 0, len(pending))
	for _, flash := range pending {
		messages = append(messages, fmt.Sprint(flash))
	}
	return messages
}
