package message

// Visualization is a high-frequency position and velocity snapshot for
// displays. Both fields are optional; an empty message is legal and simply
// carries the header.
//
// Visualization traffic is fire-and-forget: AGVs publish it at QoS 0 and
// receivers must not build logic on it.
type Visualization struct {
	Header
	AGVPosition *AGVPosition `json:"agvPosition,omitempty"`
	Velocity    *Velocity    `json:"velocity,omitempty"`
}

// MessageType implements Message.
func (v *Visualization) MessageType() Type { return TypeVisualization }

// Validate implements Message.
func (v *Visualization) Validate() error { return nil }
