package webauth

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BindingName is the message-channel function exposed to page script.
const BindingName = "marketplaceBridge"

const messageTypeCookie = "session-cookie"

// harvestScript posts the page's cookie jar back to the host.
func harvestScript(binding string) string {
	return fmt.Sprintf(`(function () {
  try {
    window.%[1]s(JSON.stringify({ type: %[2]q, cookie: document.cookie }));
  } catch (e) {
    window.%[1]s(JSON.stringify({ type: "error", error: String(e) }));
  }
})();`, binding, messageTypeCookie)
}

type bridgeMessage struct {
	Type   string `json:"type"`
	Cookie string `json:"cookie"`
	Error  string `json:"error"`
}

// parseCookieMessage extracts the cookie string from a harvest message.
// ok is false for messages that are not harvest results.
func parseCookieMessage(payload string) (cookie string, ok bool, err error) {
	var m bridgeMessage
	if jerr := json.Unmarshal([]byte(payload), &m); jerr != nil {
		return "", false, nil
	}
	switch m.Type {
	case messageTypeCookie:
		return strings.TrimSpace(m.Cookie), true, nil
	case "error":
		return "", true, fmt.Errorf("harvest script: %s", m.Error)
	default:
		return "", false, nil
	}
}
