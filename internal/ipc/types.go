package ipc

// Message names understood by a running viewer.
const (
	CmdPing = "ping"
	CmdOpen = "open"
)

// Message is a minimal command payload sent from a launching CLI to the
// viewer that is already running.
type Message struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// Response is a minimal viewer reply.
type Response struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}
