package core

// Client is a connected socket as seen by the hub.
type Client struct {
	ID         string
	RemoteAddr string
	Events     chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, remoteAddr string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		Events:     make(chan *Event, buffer),
	}
}
