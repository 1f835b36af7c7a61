package ports

// FrameSink receives decoded tunnel frames. Publish must not block.
type FrameSink interface {
	Publish(payload []byte)
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(payload []byte)

// Publish implements FrameSink.
func (f FrameSinkFunc) Publish(payload []byte) { f(payload) }
