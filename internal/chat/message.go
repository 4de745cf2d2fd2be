package chat

import "net"

// ExitLine is the sentinel a client treats as the end of its session.
const ExitLine = "exit"

// ConnectedMessage is announced to every member when id joins.
func ConnectedMessage(id string) string {
	return id + " connected."
}

// DisconnectedMessage is announced to the remaining members when id leaves.
func DisconnectedMessage(id string) string {
	return id + " disconnected."
}

// UserMessage prefixes a line received from id. The text itself is never altered.
func UserMessage(id, text string) string {
	return id + " : " + text
}

// PeerID derives a display id from a remote address: the host without the port.
func PeerID(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil || host == "" {
		return addr.String()
	}
	return host
}
