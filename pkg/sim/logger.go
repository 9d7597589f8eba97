package sim

import (
	"bytes"
	"io"
	"strconv"
	"sync"
)

// Logger accumulates key/value context and emits events. KV returns a
// child logger; the receiver is never mutated, so a logger can be
// shared across agents.
type Logger interface {
	KV(key, value string) Logger
	Event(msg string)
}

// LogMute returns a logger that drops everything.
func LogMute() Logger { return mutelog }

const mutelog = mutelogger(0)

type mutelogger uint8

func (l mutelogger) KV(_, _ string) Logger { return l }
func (mutelogger) Event(_ string)          {}

// LogJSON returns a logger that writes one JSON object per event.
func LogJSON(w io.Writer) Logger {
	return newKVLogger(w, func(buf *bytes.Buffer, keys, values []string) {
		buf.WriteByte('{')
		for i, k := range keys {
			if i != 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(k))
			buf.WriteByte(':')
			buf.WriteString(strconv.Quote(values[i]))
		}
		buf.WriteString("}\n")
	})
}

// LogPretty returns a logger that writes one key=value line per event.
func LogPretty(w io.Writer) Logger {
	return newKVLogger(w, func(buf *bytes.Buffer, keys, values []string) {
		for i, k := range keys {
			if i != 0 {
				buf.WriteByte('\t')
			}
			buf.WriteString(k)
			buf.WriteByte('=')
			buf.WriteString(strconv.Quote(values[i]))
		}
		buf.WriteByte('\n')
	})
}

type encodeFunc func(buf *bytes.Buffer, keys, values []string)

// sink serializes writes from all the child loggers sharing it.
type sink struct {
	mu      sync.Mutex
	w       io.Writer
	encode  encodeFunc
	bufpool sync.Pool
}

func newKVLogger(w io.Writer, encode encodeFunc) Logger {
	return &kvlogger{sink: &sink{
		w:      w,
		encode: encode,
		bufpool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 1<<10))
			},
		},
	}}
}

func (s *sink) emit(keys, values []string) {
	buf := s.bufpool.Get().(*bytes.Buffer)
	buf.Reset()
	s.encode(buf, keys, values)
	s.mu.Lock()
	io.Copy(s.w, buf)
	s.mu.Unlock()
	s.bufpool.Put(buf)
}

type kvlogger struct {
	sink   *sink
	keys   []string
	values []string
}

func (log *kvlogger) KV(key, value string) Logger {
	return &kvlogger{
		sink:   log.sink,
		keys:   append(log.keys[:len(log.keys):len(log.keys)], key),
		values: append(log.values[:len(log.values):len(log.values)], value),
	}
}

func (log *kvlogger) Event(msg string) {
	log.sink.emit(
		append(log.keys[:len(log.keys):len(log.keys)], "event"),
		append(log.values[:len(log.values):len(log.values)], msg),
	)
}
