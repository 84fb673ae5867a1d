package middleware

// WriterStatus is the writer-readiness vocabulary from
// original_source/src/server/h2writer.rs, carried abstractly by spec.md
// §4.4's body-streaming discussion.
type WriterStatus int

const (
	WriterReady WriterStatus = iota
	WriterPause
	WriterDone
	WriterDisconnected
)

// BodyWriter accepts body chunks and reports backpressure.
type BodyWriter interface {
	Write(chunk []byte) (WriterStatus, error)
	// Ready blocks until a paused writer becomes writable again.
	Ready() <-chan struct{}
}

// BodySource yields body chunks: empty, in-memory bytes, a lazy byte
// sequence, or an actor-backed context — all reduced to the same
// Next/Disconnect contract here.
type BodySource interface {
	Next() (chunk []byte, eof bool, err error)
	Disconnect()
}

// StreamBody pulls chunks from src and feeds w, honoring w's backpressure:
// on Pause it parks until Ready() fires before resuming; on Disconnected
// the source is notified and streaming stops.
func StreamBody(w BodyWriter, src BodySource) error {
	for {
		chunk, eof, err := src.Next()
		if err != nil {
			return err
		}
		if eof {
			return nil
		}

		status, err := w.Write(chunk)
		if err != nil {
			return err
		}

		switch status {
		case WriterPause:
			<-w.Ready()
		case WriterDisconnected:
			src.Disconnect()
			return nil
		case WriterDone, WriterReady:
		}
	}
}
